// Package assistant runs one conversational turn: it builds the prompt, calls
// the completion provider, parses the reply and executes its action.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/completion"
	"github.com/rcliao/kai/internal/memory"
	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/prompt"
	"github.com/rcliao/kai/internal/snapshot"
	"github.com/rcliao/kai/internal/store"
)

// DefaultTimeout bounds one completion request.
const DefaultTimeout = 60 * time.Second

// viewLimit caps the number of items held in the view.
const viewLimit = 200

// ErrBusy is returned by Ask while another turn is in flight.
var ErrBusy error = errbuilder.New().
	WithCode(errbuilder.CodeUnavailable).
	WithMsg("a turn is already in progress").
	WithCause(errors.New("assistant busy"))

// Apologies shown when the provider cannot answer.
const (
	msgTransport = "Lo siento, no pude hablar con la IA. Inténtalo de nuevo en un momento."
	msgRateLimit = "La IA está recibiendo demasiadas peticiones. Espera un poco y vuelve a intentarlo."
	msgTimeout   = "La IA tardó demasiado en responder. ¿Lo intentamos otra vez?"
)

// Phase is the turn state.
type Phase int32

const (
	Idle Phase = iota
	Sending
	Executing
)

func (p Phase) String() string {
	switch p {
	case Sending:
		return "sending"
	case Executing:
		return "executing"
	default:
		return "idle"
	}
}

// Reply is the outcome of one turn.
type Reply struct {
	TurnID string
	// Response is the conversational text, without the action payload.
	Response string
	// Command is the parsed action, nil when the reply carried none.
	Command *action.Command
	// Result is set when Command was executed.
	Result *action.Result
}

// Text joins the response and the action message for display.
func (r Reply) Text() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(r.Response); s != "" {
		parts = append(parts, s)
	}
	if r.Result != nil {
		if s := strings.TrimSpace(r.Result.Message); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// ViewState mirrors what a panel UI would show.
type ViewState struct {
	Items         []model.Item
	Category      string
	OpenItemID    string
	Editing       bool
	Focus         string
	SearchResults []model.Item
}

// Options configures an Assistant.
type Options struct {
	Confirmer         action.Confirmer
	Logger            logrus.FieldLogger
	Prompt            *prompt.Builder
	MaxHistory        int
	ContextLimit      int
	DescriptionBudget int
	DedupeWindow      time.Duration
	// Timeout bounds each completion request. Zero disables it.
	Timeout  time.Duration
	Location *time.Location
}

// Assistant is the chat controller. One turn runs at a time.
type Assistant struct {
	store      store.Store
	client     completion.Client
	summarizer *snapshot.Summarizer
	memory     *memory.Memory
	prompt     *prompt.Builder
	exec       *action.Executor
	log        logrus.FieldLogger
	timeout    time.Duration

	turn  sync.Mutex
	phase atomic.Int32

	viewMu sync.RWMutex
	view   ViewState
}

// New wires an assistant around s and client.
func New(ctx context.Context, s store.Store, client completion.Client, opts Options) *Assistant {
	assert.Assert(ctx, s != nil, "store should not be nil")
	assert.Assert(ctx, client != nil, "completion client should not be nil")

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	pb := opts.Prompt
	if pb == nil {
		pb = prompt.New("")
	}

	a := &Assistant{
		store:      s,
		client:     client,
		summarizer: snapshot.NewSummarizer(s, opts.ContextLimit, opts.DescriptionBudget, log),
		memory:     memory.New(opts.MaxHistory),
		prompt:     pb,
		log:        log,
		timeout:    opts.Timeout,
		view:       ViewState{Category: action.CategoryAll},
	}
	a.exec = action.NewExecutor(s, action.Options{
		Confirmer:    opts.Confirmer,
		Refresher:    a,
		Logger:       log,
		DedupeWindow: opts.DedupeWindow,
		Location:     opts.Location,
	})
	return a
}

// Phase reports the current turn state.
func (a *Assistant) Phase() Phase { return Phase(a.phase.Load()) }

// Ask runs one turn. Provider failures are turned into an apologetic reply;
// the only error returned is ErrBusy.
func (a *Assistant) Ask(ctx context.Context, message string) (Reply, error) {
	if !a.turn.TryLock() {
		return Reply{}, ErrBusy
	}
	defer a.turn.Unlock()
	defer a.phase.Store(int32(Idle))

	turnID := uuid.NewString()
	log := a.log.WithField("turn_id", turnID)
	reply := Reply{TurnID: turnID}

	a.phase.Store(int32(Sending))
	msgs := a.prompt.Build(a.summarizer.Snapshot(ctx), a.memory.Window(), message)

	raw, err := a.complete(ctx, msgs)
	if err != nil {
		log.WithError(err).Warn("completion failed")
		reply.Response = apology(err)
		return reply, nil
	}

	reply.Response, reply.Command = action.Parse(raw, log)
	a.memory.Append(model.Turn{Role: model.RoleUser, Content: message})
	a.memory.Append(model.Turn{Role: model.RoleAssistant, Content: raw})

	if reply.Command == nil {
		return reply, nil
	}

	a.phase.Store(int32(Executing))
	res := a.exec.Execute(ctx, *reply.Command)
	reply.Result = &res
	a.applyView(ctx, res)
	log.WithFields(logrus.Fields{"kind": res.Kind, "mutated": res.Mutated}).Info("turn complete")
	return reply, nil
}

func (a *Assistant) complete(ctx context.Context, msgs []completion.Message) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.client.Complete(ctx, msgs)
}

func apology(err error) string {
	var rl *completion.RateLimitError
	switch {
	case errors.As(err, &rl):
		return msgRateLimit
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	default:
		return msgTransport
	}
}

// Reload refreshes the item list of the view from the store.
func (a *Assistant) Reload(ctx context.Context) error {
	a.viewMu.RLock()
	category := a.view.Category
	a.viewMu.RUnlock()

	p := store.ListParams{Limit: viewLimit}
	if category != "" && category != action.CategoryAll {
		p.Type = model.ItemType(category)
	}
	items, err := a.store.List(ctx, p)
	if err != nil {
		return err
	}

	a.viewMu.Lock()
	a.view.Items = items
	a.viewMu.Unlock()
	return nil
}

func (a *Assistant) applyView(ctx context.Context, res action.Result) {
	reload := false

	a.viewMu.Lock()
	switch res.Kind {
	case model.KindOpenProject, model.KindOpenEdit:
		if res.Navigation != nil {
			a.view.OpenItemID = res.Navigation.ItemID
			a.view.Editing = res.Navigation.Edit
			a.view.Focus = res.Navigation.Focus
		}
	case model.KindFilterCategory:
		if res.Filter != "" && res.Filter != a.view.Category {
			a.view.Category = res.Filter
			reload = true
		}
	case model.KindSearch:
		if res.Items != nil {
			a.view.SearchResults = res.Items
		}
	case model.KindDeleteItem:
		if res.Mutated && res.Item != nil && a.view.OpenItemID == res.Item.ID {
			a.view.OpenItemID, a.view.Editing, a.view.Focus = "", false, ""
		}
	}
	a.viewMu.Unlock()

	if reload {
		if err := a.Reload(ctx); err != nil {
			a.log.WithError(err).Warn("reload after filter change failed")
		}
	}
}

// View returns a copy of the current view state.
func (a *Assistant) View() ViewState {
	a.viewMu.RLock()
	defer a.viewMu.RUnlock()
	v := a.view
	v.Items = append([]model.Item(nil), a.view.Items...)
	v.SearchResults = append([]model.Item(nil), a.view.SearchResults...)
	return v
}

// History returns the retained conversation turns.
func (a *Assistant) History() []model.Turn { return a.memory.Window() }

// Reset forgets the conversation.
func (a *Assistant) Reset() { a.memory.Reset() }
