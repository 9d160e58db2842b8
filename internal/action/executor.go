package action

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

// DefaultDedupeWindow is how long an executed mutation suppresses an
// identical repeat.
const DefaultDedupeWindow = 10 * time.Second

// User-facing messages.
const (
	msgUnknown       = "Intenté hacer algo que no entendí."
	msgNoDeleteID    = "No sé qué ID borrar."
	msgNoID          = "Necesito un ID para hacer eso, pero no encontré ninguno."
	msgStoreFailure  = "Algo falló al guardar los cambios. ¿Lo intentamos de nuevo?"
	msgDeclined      = "De acuerdo, no borré nada."
	msgDuplicate     = "Eso ya lo hice hace un momento, no lo repito."
	msgBadTaskIndex  = "Índice de subtarea inválido: ese elemento no tiene esa subtarea."
	msgInvalidParent = "No puedo usar ese proyecto padre."
	msgNoResults     = "No encontré nada con %q."
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// Refresher reloads whatever view depends on the store.
type Refresher interface {
	Reload(ctx context.Context) error
}

// Navigation is a request to open an item in the UI.
type Navigation struct {
	ItemID string
	// Edit is false for OPEN_PROJECT and true for OPEN_EDIT.
	Edit  bool
	Focus string
}

// Result is the outcome of one executed command.
type Result struct {
	Kind    model.Kind
	Message string
	// Mutated is set when the store changed.
	Mutated    bool
	Item       *model.Item
	Items      []model.Item
	Navigation *Navigation
	Filter     string
}

// Options configures an Executor.
type Options struct {
	Confirmer Confirmer
	Refresher Refresher
	Logger    logrus.FieldLogger
	// DedupeWindow suppresses repeated identical mutations. Zero disables.
	DedupeWindow time.Duration
	// Location is used for deadlines without a zone. Defaults to time.Local.
	Location *time.Location
}

// Executor validates commands and applies them to the store.
type Executor struct {
	store   store.Store
	confirm Confirmer
	refresh Refresher
	log     logrus.FieldLogger
	window  time.Duration
	loc     *time.Location
	now     func() time.Time

	mu     sync.Mutex
	recent map[string]time.Time
}

// NewExecutor creates an executor. A nil Confirmer declines every delete.
func NewExecutor(s store.Store, opts Options) *Executor {
	e := &Executor{
		store:   s,
		confirm: opts.Confirmer,
		refresh: opts.Refresher,
		log:     opts.Logger,
		window:  opts.DedupeWindow,
		loc:     opts.Location,
		now:     time.Now,
		recent:  make(map[string]time.Time),
	}
	if e.confirm == nil {
		e.confirm = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	return e
}

// Execute runs one command. It never returns an error: every failure becomes
// a user-facing message in the result.
func (e *Executor) Execute(ctx context.Context, cmd Command) Result {
	log := e.log.WithField("type", cmd.Type)

	act, err := Decode(cmd, e.loc)
	if err != nil {
		return e.decodeFailure(log, err)
	}
	kind := act.Kind()
	log = log.WithField("kind", kind)

	var fp string
	if e.window > 0 && dedupable(act) {
		fp = fingerprint(act)
		if e.seen(fp) {
			log.Info("duplicate action suppressed")
			return Result{Kind: kind, Message: msgDuplicate}
		}
	}

	res := e.dispatch(ctx, log, act)
	res.Kind = kind
	if res.Mutated {
		if fp != "" {
			e.remember(fp)
		}
		if e.refresh != nil {
			if err := e.refresh.Reload(ctx); err != nil {
				log.WithError(err).Warn("reload after mutation failed")
			}
		}
	}
	return res
}

func (e *Executor) decodeFailure(log logrus.FieldLogger, err error) Result {
	var unknown *UnknownKindError
	if errors.As(err, &unknown) {
		log.Warn("unrecognized action type")
		return Result{Message: msgUnknown}
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		log.WithError(err).Warn("action rejected")
		return Result{Message: msgUnknown}
	}
	log.WithError(err).Info("action rejected")
	res := Result{Kind: fe.Kind}
	switch {
	case fe.Field == "id" && fe.Kind == model.KindDeleteItem:
		res.Message = msgNoDeleteID
	case fe.Field == "id":
		res.Message = msgNoID
	case fe.Missing:
		res.Message = fmt.Sprintf("Me falta información: necesito %q para %s.", fe.Field, verb(fe.Kind))
	default:
		res.Message = fmt.Sprintf("El valor de %q no es válido para %s.", fe.Field, verb(fe.Kind))
	}
	return res
}

func (e *Executor) dispatch(ctx context.Context, log logrus.FieldLogger, act Action) Result {
	switch a := act.(type) {
	case CreateItem:
		it, err := e.store.Create(ctx, a.Params)
		if err != nil {
			return e.storeFailure(log, err)
		}
		log.WithField("item_id", it.ID).Info("item created")
		return Result{Message: fmt.Sprintf("Creado: %s", it.Content), Mutated: true, Item: it}

	case UpdateItem:
		it, err := e.store.Update(ctx, a.ID, a.Patch)
		if err != nil {
			return e.storeFailure(log.WithField("item_id", a.ID), err)
		}
		log.WithField("item_id", it.ID).Info("item updated")
		return Result{Message: fmt.Sprintf("Actualizado: %s", it.Content), Mutated: true, Item: it}

	case DeleteItem:
		return e.delete(ctx, log.WithField("item_id", a.ID), a)

	case ToggleTask:
		return e.toggleTask(ctx, log.WithField("item_id", a.ID), a)

	case TogglePin:
		it, err := e.store.Get(ctx, a.ID)
		if err != nil {
			return e.storeFailure(log.WithField("item_id", a.ID), err)
		}
		pinned := !it.Anclado
		it, err = e.store.Update(ctx, a.ID, model.Patch{Anclado: &pinned})
		if err != nil {
			return e.storeFailure(log.WithField("item_id", a.ID), err)
		}
		msg := fmt.Sprintf("Anclado: %s", it.Content)
		if !pinned {
			msg = fmt.Sprintf("Desanclado: %s", it.Content)
		}
		return Result{Message: msg, Mutated: true, Item: it}

	case OpenProject:
		it, err := e.store.Get(ctx, a.ID)
		if err != nil {
			return e.storeFailure(log.WithField("item_id", a.ID), err)
		}
		return Result{
			Message:    fmt.Sprintf("Abriendo %s.", it.Content),
			Item:       it,
			Navigation: &Navigation{ItemID: it.ID},
		}

	case OpenEdit:
		it, err := e.store.Get(ctx, a.ID)
		if err != nil {
			return e.storeFailure(log.WithField("item_id", a.ID), err)
		}
		return Result{
			Message:    fmt.Sprintf("Editando %s.", it.Content),
			Item:       it,
			Navigation: &Navigation{ItemID: it.ID, Edit: true, Focus: a.Focus},
		}

	case Search:
		items, err := e.store.List(ctx, store.ListParams{Query: a.Query, Limit: 20})
		if err != nil {
			return e.storeFailure(log, err)
		}
		if len(items) == 0 {
			return Result{Message: fmt.Sprintf(msgNoResults, a.Query), Items: []model.Item{}}
		}
		return Result{Message: searchSummary(a.Query, items), Items: items}

	case FilterCategory:
		msg := "Mostrando todos los elementos."
		if a.Category != CategoryAll {
			msg = fmt.Sprintf("Mostrando solo %s.", a.Category)
		}
		return Result{Message: msg, Filter: a.Category}

	case NoAction:
		return Result{}

	default:
		log.Warn("no executor for action")
		return Result{Message: msgUnknown}
	}
}

func (e *Executor) delete(ctx context.Context, log logrus.FieldLogger, a DeleteItem) Result {
	it, err := e.store.Get(ctx, a.ID)
	if err != nil {
		return e.storeFailure(log, err)
	}
	ok, err := e.confirm.Confirm(ctx, fmt.Sprintf("¿Borrar %q? No se puede deshacer.", it.Content))
	if err != nil {
		log.WithError(err).Warn("delete confirmation failed")
		return Result{Message: msgDeclined}
	}
	if !ok {
		log.Info("delete declined")
		return Result{Message: msgDeclined}
	}
	if err := e.store.Delete(ctx, a.ID); err != nil {
		return e.storeFailure(log, err)
	}
	log.Info("item deleted")
	return Result{Message: fmt.Sprintf("Borrado: %s", it.Content), Mutated: true, Item: it}
}

func (e *Executor) toggleTask(ctx context.Context, log logrus.FieldLogger, a ToggleTask) Result {
	it, err := e.store.Get(ctx, a.ID)
	if err != nil {
		return e.storeFailure(log, err)
	}
	if a.TaskIndex < 0 || a.TaskIndex >= len(it.Tareas) {
		log.WithField("task_index", a.TaskIndex).WithField("tareas", len(it.Tareas)).Info("task index out of range")
		return Result{Message: msgBadTaskIndex, Item: it}
	}
	tareas := append([]model.Subtask(nil), it.Tareas...)
	tareas[a.TaskIndex].Completed = a.Completed
	it, err = e.store.Update(ctx, a.ID, model.Patch{Tareas: &tareas})
	if err != nil {
		return e.storeFailure(log, err)
	}
	title := tareas[a.TaskIndex].Title
	msg := fmt.Sprintf("Subtarea completada: %s", title)
	if !a.Completed {
		msg = fmt.Sprintf("Subtarea pendiente: %s", title)
	}
	return Result{Message: msg, Mutated: true, Item: it}
}

func (e *Executor) storeFailure(log logrus.FieldLogger, err error) Result {
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.WithError(err).Info("item not found")
		return Result{Message: "No encontré ese elemento. ¿Puedes decirme cuál es?"}
	case errors.Is(err, store.ErrInvalidParent):
		log.WithError(err).Info("invalid parent")
		return Result{Message: msgInvalidParent}
	}
	log.WithError(err).Error("store operation failed")
	return Result{Message: msgStoreFailure}
}

func (e *Executor) seen(fp string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	for k, at := range e.recent {
		if now.Sub(at) >= e.window {
			delete(e.recent, k)
		}
	}
	_, ok := e.recent[fp]
	return ok
}

func (e *Executor) remember(fp string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recent[fp] = e.now()
}

// dedupable reports whether repeating act within the window is a duplicate.
// A pin toggle flips state, so its repeat is a new request.
func dedupable(act Action) bool {
	if _, flip := act.(TogglePin); flip {
		return false
	}
	spec, _ := model.SpecFor(act.Kind())
	return spec.Mutates
}

// fingerprint hashes the decoded action, so aliased spellings of the same
// command collide.
func fingerprint(a Action) string {
	b, err := json.Marshal(struct {
		Kind   model.Kind
		Action Action
	}{a.Kind(), a})
	if err != nil {
		b = []byte(fmt.Sprintf("%s:%#v", a.Kind(), a))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func searchSummary(query string, items []model.Item) string {
	var sb strings.Builder
	if len(items) == 1 {
		fmt.Fprintf(&sb, "Encontré 1 resultado para %q:", query)
	} else {
		fmt.Fprintf(&sb, "Encontré %d resultados para %q:", len(items), query)
	}
	for _, it := range items {
		fmt.Fprintf(&sb, "\n- %s (%s)", it.Content, it.Type)
	}
	return sb.String()
}

func verb(k model.Kind) string {
	switch k {
	case model.KindCreateItem:
		return "crear"
	case model.KindUpdateItem:
		return "editar"
	case model.KindToggleTask:
		return "marcar la subtarea"
	case model.KindSearch:
		return "buscar"
	case model.KindFilterCategory:
		return "filtrar"
	default:
		return "hacerlo"
	}
}
