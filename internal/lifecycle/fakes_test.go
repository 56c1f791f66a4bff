package lifecycle

import (
	"context"
	"sync"

	"github.com/example/ride-booking/internal/models"
	"github.com/example/ride-booking/internal/payment"
	"github.com/example/ride-booking/internal/rideapi"
)

var (
	testPickup  = models.GeoPoint{Label: "MG Road", Lat: 23.03, Lon: 72.58}
	testDropoff = models.GeoPoint{Label: "Law Garden", Lat: 23.05, Lon: 72.60}
)

// fakeAPI scripts the ride-state service. statusSeq drives what each
// successive successful Get returns; the last entry repeats.
type fakeAPI struct {
	mu sync.Mutex

	statusSeq  []models.Status
	getErrs    []error
	createErr  error
	updateErr  error
	listRides  []models.Ride
	listErr    error
	advanceErr error

	getCalls     int
	getSuccesses int
	advanceCalls int
	createCalls  int
	updateCalls  int
	listCalls    int

	created       rideapi.CreateRequest
	updatedStatus models.Status
}

func testRide(status models.Status) models.Ride {
	return models.Ride{
		ID:         "r1",
		UserID:     "u1",
		Pickup:     testPickup,
		Dropoff:    testDropoff,
		DistanceKm: 6.2,
		CarType:    "Economy",
		Price:      74.40,
		Status:     status,
	}
}

func (f *fakeAPI) Create(ctx context.Context, req rideapi.CreateRequest) (models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.created = req
	if f.createErr != nil {
		return models.Ride{}, f.createErr
	}
	r := testRide(req.Status)
	r.UserID = req.UserID
	r.PaymentRef = req.PaymentRef
	return r, nil
}

func (f *fakeAPI) Get(ctx context.Context, id string) (models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if len(f.getErrs) > 0 {
		err := f.getErrs[0]
		f.getErrs = f.getErrs[1:]
		return models.Ride{}, err
	}
	idx := f.getSuccesses
	if idx >= len(f.statusSeq) {
		idx = len(f.statusSeq) - 1
	}
	f.getSuccesses++
	return testRide(f.statusSeq[idx]), nil
}

func (f *fakeAPI) ListByUser(ctx context.Context, userID string) ([]models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.listRides, f.listErr
}

func (f *fakeAPI) UpdateStatus(ctx context.Context, id string, status models.Status) (models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return models.Ride{}, f.updateErr
	}
	f.updatedStatus = status
	return testRide(status), nil
}

func (f *fakeAPI) AdvanceDriver(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceCalls++
	return f.advanceErr
}

func (f *fakeAPI) snapshotCounts() (gets, advances, creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.advanceCalls, f.createCalls, f.updateCalls
}

// fakeGateway scripts the payment collaborator.
type fakeGateway struct {
	mu           sync.Mutex
	authErr      error
	confirmErr   error
	authCalls    int
	confirmCalls int
}

func (g *fakeGateway) CreateAuthorization(ctx context.Context, amountMinor int64) (payment.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authCalls++
	if g.authErr != nil {
		return payment.Authorization{}, g.authErr
	}
	return payment.Authorization{ClientSecret: "pi_1_secret_x", AmountMinorUnits: amountMinor}, nil
}

func (g *fakeGateway) Confirm(ctx context.Context, clientSecret string, details payment.Details) (payment.Confirmation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirmCalls++
	if g.confirmErr != nil {
		return payment.Confirmation{}, g.confirmErr
	}
	return payment.Confirmation{PaymentRef: "pi_1"}, nil
}

// fakeRoutes counts route computations.
type fakeRoutes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRoutes) ComputeRoute(ctx context.Context, a, b models.GeoPoint) (models.RouteGeometry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return models.RouteGeometry{}, f.err
	}
	return models.RouteGeometry{
		Path:       []models.LatLon{{Lat: a.Lat, Lon: a.Lon}, {Lat: b.Lat, Lon: b.Lon}},
		DistanceKm: 6.2,
	}, nil
}

func (f *fakeRoutes) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
