package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/kai/internal/action"
	"github.com/rcliao/kai/internal/completion"
	"github.com/rcliao/kai/internal/model"
	"github.com/rcliao/kai/internal/store"
)

// scripted returns canned completions in order and records every request.
type scripted struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests [][]completion.Message
}

func (s *scripted) Complete(ctx context.Context, msgs []completion.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, msgs)
	i := len(s.requests) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", completion.ErrEmptyCompletion
}

// blocking waits until released or the context ends.
type blocking struct {
	started chan struct{}
	release chan struct{}
}

func (b *blocking) Complete(ctx context.Context, _ []completion.Message) (string, error) {
	close(b.started)
	select {
	case <-b.release:
		return "Listo.", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "kai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newAssistant(t *testing.T, s store.Store, c completion.Client, opts Options) *Assistant {
	t.Helper()
	log, _ := test.NewNullLogger()
	opts.Logger = log
	return New(context.Background(), s, c, opts)
}

func TestAskCreatesItem(t *testing.T) {
	s := newStore(t)
	c := &scripted{replies: []string{
		`¡Hecho! Apunté la compra. [ACTION] {"type":"CREATE_ITEM","data":{"content":"Comprar pan","type":"task"}}`,
	}}
	a := newAssistant(t, s, c, Options{})

	reply, err := a.Ask(context.Background(), "apunta comprar pan")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.TurnID)
	assert.Equal(t, "¡Hecho! Apunté la compra.", reply.Response)
	require.NotNil(t, reply.Result)
	assert.True(t, reply.Result.Mutated)
	assert.Contains(t, reply.Text(), "Creado: Comprar pan")

	items, err := s.List(context.Background(), store.ListParams{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.TypeTask, items[0].Type)

	view := a.View()
	require.Len(t, view.Items, 1, "mutation reloads the view")
	assert.Equal(t, Idle, a.Phase())
}

func TestAskPromptCarriesSnapshotAndHistory(t *testing.T) {
	s := newStore(t)
	_, err := s.Create(context.Background(), store.CreateParams{Content: "Llamar a mamá"})
	require.NoError(t, err)

	c := &scripted{replies: []string{"Hola.", "Sigo aquí."}}
	a := newAssistant(t, s, c, Options{})

	_, err = a.Ask(context.Background(), "hola")
	require.NoError(t, err)
	_, err = a.Ask(context.Background(), "¿sigues?")
	require.NoError(t, err)

	require.Len(t, c.requests, 2)
	second := c.requests[1]
	require.Len(t, second, 4)
	assert.Equal(t, completion.RoleSystem, second[0].Role)
	assert.Contains(t, second[0].Content, "Llamar a mamá")
	assert.Equal(t, "hola", second[1].Content)
	assert.Equal(t, "Hola.", second[2].Content)
	assert.Equal(t, "¿sigues?", second[3].Content)
}

func TestAskTransportFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"generic", errors.New("connection refused"), msgTransport},
		{"empty", completion.ErrEmptyCompletion, msgTransport},
		{"rate limit", &completion.RateLimitError{StatusCode: 429}, msgRateLimit},
		{"timeout", context.DeadlineExceeded, msgTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scripted{errs: []error{tt.err}}
			a := newAssistant(t, newStore(t), c, Options{})

			reply, err := a.Ask(context.Background(), "hola")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Response)
			assert.Nil(t, reply.Command)
			assert.Zero(t, len(a.History()), "memory is untouched on failure")
			assert.Equal(t, Idle, a.Phase())
		})
	}
}

func TestAskMalformedAction(t *testing.T) {
	s := newStore(t)
	c := &scripted{replies: []string{"Claro [ACTION] {esto no es json"}}
	a := newAssistant(t, s, c, Options{})

	reply, err := a.Ask(context.Background(), "crea algo")
	require.NoError(t, err)
	assert.Equal(t, "Claro", reply.Response)
	assert.Nil(t, reply.Command)
	assert.Nil(t, reply.Result)
}

func TestAskBusy(t *testing.T) {
	b := &blocking{started: make(chan struct{}), release: make(chan struct{})}
	a := newAssistant(t, newStore(t), b, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := a.Ask(context.Background(), "primero")
		done <- err
	}()
	<-b.started
	assert.Equal(t, Sending, a.Phase())

	_, err := a.Ask(context.Background(), "segundo")
	assert.True(t, errors.Is(err, ErrBusy))

	close(b.release)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, a.Phase())
	assert.Len(t, a.History(), 2, "the rejected turn left no trace")
}

func TestAskTimeout(t *testing.T) {
	b := &blocking{started: make(chan struct{}), release: make(chan struct{})}
	a := newAssistant(t, newStore(t), b, Options{Timeout: 20 * time.Millisecond})

	reply, err := a.Ask(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, msgTimeout, reply.Response)
}

func TestAskDeleteRequiresConfirmation(t *testing.T) {
	s := newStore(t)
	it, err := s.Create(context.Background(), store.CreateParams{Content: "Borrable"})
	require.NoError(t, err)

	c := &scripted{replies: []string{
		`Lo borro. [ACTION] {"type":"DELETE_ITEM","data":{"id":"` + it.ID + `"}}`,
		`Lo borro. [ACTION] {"type":"DELETE_ITEM","data":{"id":"` + it.ID + `"}}`,
	}}
	answers := []bool{false, true}
	a := newAssistant(t, s, c, Options{
		Confirmer: action.ConfirmFunc(func(context.Context, string) (bool, error) {
			ok := answers[0]
			answers = answers[1:]
			return ok, nil
		}),
	})

	reply, err := a.Ask(context.Background(), "borra eso")
	require.NoError(t, err)
	assert.False(t, reply.Result.Mutated)
	_, err = s.Get(context.Background(), it.ID)
	require.NoError(t, err, "declined delete keeps the item")

	reply, err = a.Ask(context.Background(), "sí, bórralo")
	require.NoError(t, err)
	assert.True(t, reply.Result.Mutated)
	_, err = s.Get(context.Background(), it.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestAskNavigationAndFilter(t *testing.T) {
	s := newStore(t)
	proj, err := s.Create(context.Background(), store.CreateParams{Content: "Casa", Type: model.TypeProject})
	require.NoError(t, err)
	_, err = s.Create(context.Background(), store.CreateParams{Content: "Idea suelta"})
	require.NoError(t, err)

	c := &scripted{replies: []string{
		`Abro el proyecto. [ACTION] {"type":"OPEN_PROJECT","id":"` + proj.ID + `"}`,
		`Filtro proyectos. [ACTION] {"type":"FILTER_CATEGORY","data":{"category":"project"}}`,
	}}
	a := newAssistant(t, s, c, Options{})

	_, err = a.Ask(context.Background(), "abre casa")
	require.NoError(t, err)
	assert.Equal(t, proj.ID, a.View().OpenItemID)

	_, err = a.Ask(context.Background(), "solo proyectos")
	require.NoError(t, err)
	view := a.View()
	assert.Equal(t, "project", view.Category)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Casa", view.Items[0].Content)
}

func TestReplyText(t *testing.T) {
	assert.Equal(t, "hola", Reply{Response: " hola "}.Text())
	assert.Equal(t, "ok\nCreado: x", Reply{Response: "ok", Result: &action.Result{Message: "Creado: x"}}.Text())
	assert.Equal(t, "Creado: x", Reply{Result: &action.Result{Message: "Creado: x"}}.Text())
}
