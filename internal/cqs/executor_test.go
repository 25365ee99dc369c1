package cqs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"lumacms.org/internal/cache"
	"lumacms.org/internal/db"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/validation"
)

type createNoteCommand struct {
	Title        string
	Body         string
	OutputNoteID string
}

func (c *createNoteCommand) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.Required("Title", c.Title),
		validation.MaxLength("Body", c.Body, 10),
	}
}

type createNoteHandler struct {
	calls int
	fail  error
}

func (h *createNoteHandler) Execute(ctx context.Context, cmd *createNoteCommand, ec ExecutionContext) error {
	h.calls++
	if h.fail != nil {
		return h.fail
	}
	cmd.OutputNoteID = "note-1"
	return nil
}

func (h *createNoteHandler) RequiredPermissions(cmd *createNoteCommand) permissions.Requirement {
	return permissions.Require(permissions.PermUsersCreate)
}

type bootstrapCommand struct{}

type bootstrapHandler struct{ calls int }

func (h *bootstrapHandler) Execute(ctx context.Context, cmd *bootstrapCommand, ec ExecutionContext) error {
	h.calls++
	return nil
}

func (h *bootstrapHandler) IgnorePermissionCheck() {}

type fixedResolver struct {
	uc  UserContext
	err error
}

func (r fixedResolver) ResolveUserContext(ctx context.Context) (UserContext, error) {
	return r.uc, r.err
}

func editorContext() UserContext {
	role := permissions.NewRole("r1", "EDT", "Editor", "ADM", []permissions.Permission{{Code: permissions.PermUsersCreate}})
	return UserContext{UserID: "u1", UserAreaCode: "ADM", Role: role}
}

func TestValidationFailureStopsHandler(t *testing.T) {
	h := &createNoteHandler{}
	e := NewExecutor(db.NewScopeManager(nil), WithContextResolver(fixedResolver{uc: editorContext()}))
	MustRegisterCommand(e, h)

	err := e.Execute(context.Background(), &createNoteCommand{Title: "", Body: "way too long body"})

	var failed *validation.FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedError, got %v", err)
	}
	if len(failed.Errors) != 2 {
		t.Fatalf("expected both errors aggregated, got %v", failed.Errors)
	}
	if h.calls != 0 {
		t.Fatalf("handler must not run on validation failure")
	}
}

func TestAuthorizationFailureStopsHandler(t *testing.T) {
	h := &createNoteHandler{}
	e := NewExecutor(db.NewScopeManager(nil)) // no resolver: anonymous
	MustRegisterCommand(e, h)

	err := e.Execute(context.Background(), &createNoteCommand{Title: "hi"})

	var authErr *permissions.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if authErr.Missing.Code != permissions.PermUsersCreate {
		t.Fatalf("expected missing %s, got %s", permissions.PermUsersCreate, authErr.Missing.Code)
	}
	if h.calls != 0 {
		t.Fatalf("handler must not run when unauthorized")
	}
}

func TestCommandSuccessPopulatesOutput(t *testing.T) {
	h := &createNoteHandler{}
	e := NewExecutor(db.NewScopeManager(nil), WithContextResolver(fixedResolver{uc: editorContext()}))
	MustRegisterCommand(e, h)

	cmd := &createNoteCommand{Title: "hi"}
	if err := e.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if cmd.OutputNoteID != "note-1" {
		t.Fatalf("output field not populated: %q", cmd.OutputNoteID)
	}
	if h.calls != 1 {
		t.Fatalf("expected one handler call, got %d", h.calls)
	}
}

func TestIgnorePermissionCheckRunsAnonymously(t *testing.T) {
	h := &bootstrapHandler{}
	e := NewExecutor(db.NewScopeManager(nil))
	MustRegisterCommand(e, h)

	if err := e.Execute(context.Background(), &bootstrapCommand{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if h.calls != 1 {
		t.Fatalf("expected handler call")
	}
}

func TestExecuteAsSystemBypassesPermissions(t *testing.T) {
	h := &createNoteHandler{}
	e := NewExecutor(db.NewScopeManager(nil))
	MustRegisterCommand(e, h)

	ec := ExecutionContext{UserContext: SystemUserContext()}
	if err := e.ExecuteAs(context.Background(), &createNoteCommand{Title: "hi"}, ec); err != nil {
		t.Fatalf("ExecuteAs: %v", err)
	}
	if h.calls != 1 {
		t.Fatalf("expected handler call")
	}
}

type undeclaredHandler struct{}

func (h *undeclaredHandler) Execute(ctx context.Context, cmd *bootstrapCommand, ec ExecutionContext) error {
	return nil
}

func TestRegistrationRequiresPermissionDeclaration(t *testing.T) {
	e := NewExecutor(db.NewScopeManager(nil))

	err := RegisterCommand(e, &undeclaredHandler{})
	if !errors.Is(err, ErrRegistration) {
		t.Fatalf("expected ErrRegistration, got %v", err)
	}
}

func TestClockDrivesExecutionDate(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var seen time.Time
	h := &dateCaptureHandler{out: &seen}
	e := NewExecutor(db.NewScopeManager(nil), WithClock(func() time.Time { return fixed }))
	MustRegisterCommand(e, h)

	if err := e.Execute(context.Background(), &bootstrapCommand{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !seen.Equal(fixed) {
		t.Fatalf("execution date %v, want %v", seen, fixed)
	}
}

type dateCaptureHandler struct{ out *time.Time }

func (h *dateCaptureHandler) Execute(ctx context.Context, cmd *bootstrapCommand, ec ExecutionContext) error {
	*h.out = ec.ExecutionDate
	return nil
}

func (h *dateCaptureHandler) IgnorePermissionCheck() {}

// Nested execution: a parent command issues two child commands; the second
// fails. The store must reflect neither write and the cache must stay warm.

type writeRowCommand struct {
	Value string
	Fail  bool
}

type writeRowHandler struct {
	cache *cache.Cache
	exec  func(ctx context.Context, value string) error
}

func (h *writeRowHandler) Execute(ctx context.Context, cmd *writeRowCommand, ec ExecutionContext) error {
	if cmd.Fail {
		return errors.New("nested write failed")
	}
	if err := h.exec(ctx, cmd.Value); err != nil {
		return err
	}
	h.cache.Clear(ctx, "rows")
	return nil
}

func (h *writeRowHandler) IgnorePermissionCheck() {}

type parentCommand struct{}

type parentHandler struct{ executor *Executor }

func (h *parentHandler) Execute(ctx context.Context, cmd *parentCommand, ec ExecutionContext) error {
	if err := h.executor.Execute(ctx, &writeRowCommand{Value: "first"}); err != nil {
		return err
	}
	return h.executor.Execute(ctx, &writeRowCommand{Value: "second", Fail: true})
}

func (h *parentHandler) IgnorePermissionCheck() {}

func TestNestedCommandFailureRollsBackEverything(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("insert into rows").WithArgs("first").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	scopes := db.NewScopeManager(conn)
	c := cache.New()
	c.Set("rows", "r1", "cached")

	e := NewExecutor(scopes)
	MustRegisterCommand(e, &writeRowHandler{
		cache: c,
		exec: func(ctx context.Context, value string) error {
			q := db.QuerierFrom(ctx, conn)
			_, err := q.ExecContext(ctx, "insert into rows(value) values($1)", value)
			return err
		},
	})
	MustRegisterCommand(e, &parentHandler{executor: e})

	err = e.Execute(context.Background(), &parentCommand{})
	if err == nil || err.Error() != "nested write failed" {
		t.Fatalf("expected nested failure to propagate, got %v", err)
	}
	if _, ok := c.Get("rows", "r1"); !ok {
		t.Fatalf("cache must not be cleared after rollback")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Queries.

type countNotesQuery struct{ Owner string }

type countNotesHandler struct{ calls int }

func (h *countNotesHandler) Execute(ctx context.Context, qry *countNotesQuery, ec ExecutionContext) (int, error) {
	h.calls++
	return 7, nil
}

func (h *countNotesHandler) RequiredPermissions(qry *countNotesQuery) permissions.Requirement {
	return permissions.Require(permissions.PermUsersRead).WithOwner(qry.Owner)
}

func TestQueryReturnsTypedResult(t *testing.T) {
	h := &countNotesHandler{}
	e := NewExecutor(db.NewScopeManager(nil), WithContextResolver(fixedResolver{uc: UserContext{UserID: "u9"}}))
	MustRegisterQuery(e, h)

	// Ownership allow-path: u9 queries their own notes without a role grant.
	n, err := ExecuteQuery[int](context.Background(), e, &countNotesQuery{Owner: "u9"})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}

func TestQueryDeniedForNonOwner(t *testing.T) {
	h := &countNotesHandler{}
	e := NewExecutor(db.NewScopeManager(nil), WithContextResolver(fixedResolver{uc: UserContext{UserID: "u9"}}))
	MustRegisterQuery(e, h)

	_, err := ExecuteQuery[int](context.Background(), e, &countNotesQuery{Owner: "someone-else"})

	var authErr *permissions.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if h.calls != 0 {
		t.Fatalf("handler must not run when unauthorized")
	}
}
