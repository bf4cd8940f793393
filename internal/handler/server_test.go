package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/handler"
	"github.com/akorchak/fleet-dispatch/internal/middleware"
	"github.com/akorchak/fleet-dispatch/internal/service"
)

// ---- mock servicers --------------------------------------------------------

type mockAuthService struct {
	signup func(ctx context.Context, in service.SignupInput) (domain.User, error)
	login  func(ctx context.Context, username, password string) (string, domain.User, error)
}

func (m *mockAuthService) Signup(ctx context.Context, in service.SignupInput) (domain.User, error) {
	return m.signup(ctx, in)
}
func (m *mockAuthService) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	return m.login(ctx, username, password)
}

type mockFleetService struct {
	create      func(ctx context.Context, actor domain.User, name, description string) (domain.Fleet, error)
	list        func(ctx context.Context, actor domain.User) ([]domain.Fleet, error)
	listPending func(ctx context.Context, driver domain.User) ([]domain.Fleet, error)
	get         func(ctx context.Context, actor domain.User, fleetID uuid.UUID) (domain.Fleet, error)
	delete      func(ctx context.Context, actor domain.User, fleetID uuid.UUID) error
}

func (m *mockFleetService) Create(ctx context.Context, actor domain.User, name, description string) (domain.Fleet, error) {
	return m.create(ctx, actor, name, description)
}
func (m *mockFleetService) List(ctx context.Context, actor domain.User) ([]domain.Fleet, error) {
	return m.list(ctx, actor)
}
func (m *mockFleetService) ListPending(ctx context.Context, driver domain.User) ([]domain.Fleet, error) {
	return m.listPending(ctx, driver)
}
func (m *mockFleetService) Get(ctx context.Context, actor domain.User, fleetID uuid.UUID) (domain.Fleet, error) {
	return m.get(ctx, actor, fleetID)
}
func (m *mockFleetService) Delete(ctx context.Context, actor domain.User, fleetID uuid.UUID) error {
	return m.delete(ctx, actor, fleetID)
}

type mockMembershipService struct {
	invite         func(ctx context.Context, actor domain.User, fleetID uuid.UUID, driverIDs []uuid.UUID) (service.InviteResult, error)
	accept         func(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (service.BatchResult, error)
	decline        func(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (service.BatchResult, error)
	dismiss        func(ctx context.Context, actor domain.User, fleetID, driverID uuid.UUID) error
	listMembers    func(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error)
	listPending    func(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error)
	listNonMembers func(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error)
}

func (m *mockMembershipService) Invite(ctx context.Context, actor domain.User, fleetID uuid.UUID, driverIDs []uuid.UUID) (service.InviteResult, error) {
	return m.invite(ctx, actor, fleetID, driverIDs)
}
func (m *mockMembershipService) Accept(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (service.BatchResult, error) {
	return m.accept(ctx, driver, fleetIDs)
}
func (m *mockMembershipService) Decline(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (service.BatchResult, error) {
	return m.decline(ctx, driver, fleetIDs)
}
func (m *mockMembershipService) Dismiss(ctx context.Context, actor domain.User, fleetID, driverID uuid.UUID) error {
	return m.dismiss(ctx, actor, fleetID, driverID)
}
func (m *mockMembershipService) ListMembers(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error) {
	return m.listMembers(ctx, actor, fleetID)
}
func (m *mockMembershipService) ListPending(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error) {
	return m.listPending(ctx, actor, fleetID)
}
func (m *mockMembershipService) ListNonMembers(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error) {
	return m.listNonMembers(ctx, actor, fleetID)
}

type mockTripService struct {
	create            func(ctx context.Context, actor domain.User, fleetID uuid.UUID, description string) (domain.Trip, error)
	accept            func(ctx context.Context, driver domain.User, tripID uuid.UUID) (domain.Trip, error)
	reportProblem     func(ctx context.Context, driver domain.User, problem domain.Problem) (domain.Trip, error)
	finish            func(ctx context.Context, driver domain.User) (domain.Trip, error)
	current           func(ctx context.Context, driver domain.User) (domain.Trip, error)
	getByID           func(ctx context.Context, actor domain.User, tripID uuid.UUID) (domain.Trip, error)
	unacceptedByFleet func(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.Trip, error)
	finishedByFleet   func(ctx context.Context, actor domain.User, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error)
	available         func(ctx context.Context, driver domain.User) ([]domain.Trip, error)
	availableByFleet  func(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error)
	history           func(ctx context.Context, driver domain.User) ([]domain.Trip, error)
	historyByFleet    func(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error)
}

func (m *mockTripService) Create(ctx context.Context, actor domain.User, fleetID uuid.UUID, description string) (domain.Trip, error) {
	return m.create(ctx, actor, fleetID, description)
}
func (m *mockTripService) Accept(ctx context.Context, driver domain.User, tripID uuid.UUID) (domain.Trip, error) {
	return m.accept(ctx, driver, tripID)
}
func (m *mockTripService) ReportProblem(ctx context.Context, driver domain.User, problem domain.Problem) (domain.Trip, error) {
	return m.reportProblem(ctx, driver, problem)
}
func (m *mockTripService) Finish(ctx context.Context, driver domain.User) (domain.Trip, error) {
	return m.finish(ctx, driver)
}
func (m *mockTripService) Current(ctx context.Context, driver domain.User) (domain.Trip, error) {
	return m.current(ctx, driver)
}
func (m *mockTripService) GetByID(ctx context.Context, actor domain.User, tripID uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, actor, tripID)
}
func (m *mockTripService) UnacceptedByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.Trip, error) {
	return m.unacceptedByFleet(ctx, actor, fleetID)
}
func (m *mockTripService) FinishedByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error) {
	return m.finishedByFleet(ctx, actor, fleetID, page)
}
func (m *mockTripService) Available(ctx context.Context, driver domain.User) ([]domain.Trip, error) {
	return m.available(ctx, driver)
}
func (m *mockTripService) AvailableByFleet(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error) {
	return m.availableByFleet(ctx, driver, fleetID)
}
func (m *mockTripService) History(ctx context.Context, driver domain.User) ([]domain.Trip, error) {
	return m.history(ctx, driver)
}
func (m *mockTripService) HistoryByFleet(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error) {
	return m.historyByFleet(ctx, driver, fleetID)
}

type mockPositionService struct {
	update func(ctx context.Context, driver domain.User, lat, lon float64) error
	reload func(ctx context.Context) error
}

func (m *mockPositionService) Update(ctx context.Context, driver domain.User, lat, lon float64) error {
	return m.update(ctx, driver, lat, lon)
}
func (m *mockPositionService) ReloadChannels(ctx context.Context) error {
	return m.reload(ctx)
}

type mockExportService struct {
	exportByFleet func(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockExportService) ExportByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.ExportRow, error) {
	return m.exportByFleet(ctx, actor, fleetID)
}

// Compile-time checks: the mocks must satisfy the handler's interfaces.
var (
	_ handler.AuthServicer       = (*mockAuthService)(nil)
	_ handler.FleetServicer      = (*mockFleetService)(nil)
	_ handler.MembershipServicer = (*mockMembershipService)(nil)
	_ handler.TripServicer       = (*mockTripService)(nil)
	_ handler.PositionServicer   = (*mockPositionService)(nil)
	_ handler.ExportServicer     = (*mockExportService)(nil)
)

// ---- harness ---------------------------------------------------------------

// deps bundles the mocks feeding a Server under test.
type deps struct {
	auth        *mockAuthService
	fleets      *mockFleetService
	memberships *mockMembershipService
	trips       *mockTripService
	positions   *mockPositionService
	export      *mockExportService
}

func newDeps() *deps {
	return &deps{
		auth:        &mockAuthService{},
		fleets:      &mockFleetService{},
		memberships: &mockMembershipService{},
		trips:       &mockTripService{},
		positions:   &mockPositionService{},
		export:      &mockExportService{},
	}
}

// stubVerifier resolves any token equal to its value to the stored user id.
type stubVerifier struct {
	token  string
	userID uuid.UUID
}

func (v *stubVerifier) Verify(token string) (uuid.UUID, error) {
	if token != v.token {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return v.userID, nil
}

// stubUserGetter serves the fixed set of users the test registered.
type stubUserGetter struct {
	users map[uuid.UUID]domain.User
}

func (g *stubUserGetter) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	user, ok := g.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

// testServer builds the full router with real auth middleware and the mocks,
// authenticating requests that carry "Bearer test-token" as the given user.
func testServer(d *deps, user domain.User) http.Handler {
	verifier := &stubVerifier{token: "test-token", userID: user.ID}
	getter := &stubUserGetter{users: map[uuid.UUID]domain.User{user.ID: user}}
	srv := handler.NewServer(d.auth, d.fleets, d.memberships, d.trips, d.positions, d.export)
	return srv.Routes(middleware.NewAuthenticator(verifier, getter))
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope unmarshals the response body into a generic envelope map.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func testOwner() domain.User {
	return domain.User{ID: uuid.New(), Username: "boss", Role: domain.RoleOwner}
}

func testDriver() domain.User {
	return domain.User{ID: uuid.New(), Username: "wheels", Role: domain.RoleDriver}
}
