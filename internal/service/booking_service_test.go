package service

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
)

// fakeAppointmentRepo mirrors the transactional admission semantics of the
// real repository in memory: the whole check-and-insert runs under one lock,
// like the row-locked transaction does against Postgres.
type fakeAppointmentRepo struct {
	mu     sync.Mutex
	nextID uint
	appts  map[uint]*domain.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appts: make(map[uint]*domain.Appointment)}
}

func (f *fakeAppointmentRepo) dayState(doctorID uint, t time.Time, excludeID uint) (count int, times []time.Time) {
	dayStart, dayEnd := domain.DayBounds(t)
	for _, a := range f.appts {
		if a.DoctorID != doctorID || a.ID == excludeID {
			continue
		}
		if a.Status != domain.StatusPending && a.Status != domain.StatusConfirmed {
			continue
		}
		if a.Datetime.Before(dayStart) || !a.Datetime.Before(dayEnd) {
			continue
		}
		count++
		times = append(times, a.Datetime)
	}
	return count, times
}

func checkAdmission(count int, times []time.Time, at time.Time, maxPerDay int) error {
	if count >= maxPerDay {
		return domain.ErrDayFullyBooked
	}
	for _, b := range times {
		diff := at.Sub(b)
		if diff < 0 {
			diff = -diff
		}
		if diff < domain.SlotMinutes*time.Minute {
			return domain.ErrSlotConflict
		}
	}
	return nil
}

func (f *fakeAppointmentRepo) AdmitBooking(appt *domain.Appointment, maxPerDay int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, times := f.dayState(appt.DoctorID, appt.Datetime, 0)
	if err := checkAdmission(count, times, appt.Datetime, maxPerDay); err != nil {
		return err
	}
	f.nextID++
	appt.ID = f.nextID
	key := domain.FloorToSlot(appt.Datetime)
	appt.SlotKey = &key
	stored := *appt
	f.appts[appt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Reactivate(appt *domain.Appointment, status string, maxPerDay int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, times := f.dayState(appt.DoctorID, appt.Datetime, appt.ID)
	if err := checkAdmission(count, times, appt.Datetime, maxPerDay); err != nil {
		return err
	}
	stored, ok := f.appts[appt.ID]
	if !ok {
		return domain.ErrNotFound
	}
	key := domain.FloorToSlot(appt.Datetime)
	stored.Status = status
	stored.SlotKey = &key
	appt.Status = status
	appt.SlotKey = &key
	return nil
}

func (f *fakeAppointmentRepo) OccupancyForDay(doctorID uint, date time.Time) (repository.Occupancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, times := f.dayState(doctorID, date, 0)
	return repository.Occupancy{BookedTimes: times, CountForDay: count}, nil
}

func (f *fakeAppointmentRepo) FindByID(id uint) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeAppointmentRepo) FindByDoctor(doctorID uint) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindByPatient(patientID uint) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Appointment
	for _, a := range f.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindConfirmedBetween(from, to time.Time) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Appointment
	for _, a := range f.appts {
		if a.Status == domain.StatusConfirmed && !a.Datetime.Before(from) && a.Datetime.Before(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(appt *domain.Appointment, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.appts[appt.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = status
	if status == domain.StatusRejected {
		stored.SlotKey = nil
	}
	appt.Status = status
	return nil
}

func (f *fakeAppointmentRepo) Delete(appt *domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.appts, appt.ID)
	return nil
}

func (f *fakeAppointmentRepo) DeleteIfNotConfirmed(appt *domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.appts[appt.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status == domain.StatusConfirmed {
		return domain.ErrConfirmedCannotCancel
	}
	delete(f.appts, appt.ID)
	return nil
}

func (f *fakeAppointmentRepo) DeleteByDoctor(doctorID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.appts {
		if a.DoctorID == doctorID {
			delete(f.appts, id)
		}
	}
	return nil
}

func (f *fakeAppointmentRepo) DeleteByPatient(patientID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.appts {
		if a.PatientID == patientID {
			delete(f.appts, id)
		}
	}
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*domain.User)}
}

func (f *fakeUserRepo) Create(user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) FindByID(id uint) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmailAndRole(email, role string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && u.Role == role {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) FindByRole(role string) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindAll() ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Delete(user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, user.ID)
	return nil
}

func (f *fakeUserRepo) CountByRole(role string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, u := range f.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uint]*domain.DoctorProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uint]*domain.DoctorProfile)}
}

func (f *fakeProfileRepo) FindByUserID(userID uint) (*domain.DoctorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfileRepo) FindByUserIDs(userIDs []uint) ([]domain.DoctorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DoctorProfile
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) Save(profile *domain.DoctorProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *profile
	f.profiles[profile.UserID] = &stored
	return nil
}

func (f *fakeProfileRepo) DeleteByUserID(userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, userID)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (f *fakeNotifier) Publish(event domain.NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) byType(eventType string) []domain.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.NotificationEvent
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type bookingFixture struct {
	svc      *bookingService
	appts    *fakeAppointmentRepo
	users    *fakeUserRepo
	profiles *fakeProfileRepo
	notifier *fakeNotifier
	doctorID uint
	patient  uint
}

// newBookingFixture seeds one doctor available Mon 09:00-11:00 with a
// daily cap of 3, plus one patient. 2025-06-02 is a Monday.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	appts := newFakeAppointmentRepo()
	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	notifier := &fakeNotifier{}

	doctor := &domain.User{Name: "Dr. Vance", Email: "vance@clinic.test", Password: "x", Role: domain.RoleDoctor}
	if err := users.Create(doctor); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	patient := &domain.User{Name: "Ana", Email: "ana@clinic.test", Password: "x", Role: domain.RolePatient}
	if err := users.Create(patient); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	profile := &domain.DoctorProfile{
		UserID:            doctor.ID,
		Specialty:         "Dermatology",
		MaxPatientsPerDay: 3,
		Availability: []domain.AvailabilityWindow{
			{Day: "Mon", Start: "09:00", End: "11:00"},
		},
	}
	if err := profiles.Save(profile); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	svc := NewBookingService(appts, users, profiles, notifier, testLogger()).(*bookingService)
	// Pin the clock well before the fixture's Monday so no slot is in
	// the past.
	svc.now = func() time.Time {
		return time.Date(2025, 5, 1, 12, 0, 0, 0, time.Local)
	}
	return &bookingFixture{
		svc:      svc,
		appts:    appts,
		users:    users,
		profiles: profiles,
		notifier: notifier,
		doctorID: doctor.ID,
		patient:  patient.ID,
	}
}

const fixtureMonday = "2025-06-02"

func (fx *bookingFixture) book(t *testing.T, at string) *domain.Appointment {
	t.Helper()
	appt, err := fx.svc.RequestBooking(fx.patient, fx.doctorID, at, "checkup")
	if err != nil {
		t.Fatalf("RequestBooking(%s): %v", at, err)
	}
	return appt
}

func TestAvailableSlotsListsWholeWindow(t *testing.T) {
	fx := newBookingFixture(t)
	slots, err := fx.svc.AvailableSlots(fx.doctorID, fixtureMonday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	want := []string{"09:00", "09:30", "10:00", "10:30"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slots = %v, want %v", slots, want)
		}
	}
}

func TestAvailableSlotsOtherWeekdayEmpty(t *testing.T) {
	fx := newBookingFixture(t)
	slots, err := fx.svc.AvailableSlots(fx.doctorID, "2025-06-03") // Tuesday
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots off the availability weekday, got %v", slots)
	}
}

func TestAvailableSlotsBadInput(t *testing.T) {
	fx := newBookingFixture(t)
	if _, err := fx.svc.AvailableSlots(fx.doctorID, "June 2nd"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("malformed date: err = %v, want ErrInvalidInput", err)
	}
	if _, err := fx.svc.AvailableSlots(999, fixtureMonday); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown doctor: err = %v, want ErrNotFound", err)
	}
	if _, err := fx.svc.AvailableSlots(fx.patient, fixtureMonday); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("non-doctor id: err = %v, want ErrNotFound", err)
	}
}

func TestAvailableSlotsDoctorWithoutProfile(t *testing.T) {
	fx := newBookingFixture(t)
	bare := &domain.User{Name: "Dr. New", Email: "new@clinic.test", Password: "x", Role: domain.RoleDoctor}
	if err := fx.users.Create(bare); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	slots, err := fx.svc.AvailableSlots(bare.ID, fixtureMonday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("doctor without a profile should expose no slots, got %v", slots)
	}
}

func TestBookingHidesSlotFromListing(t *testing.T) {
	fx := newBookingFixture(t)
	fx.book(t, fixtureMonday+"T09:00")

	slots, err := fx.svc.AvailableSlots(fx.doctorID, fixtureMonday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	// 09:30 is exactly one slot away from 09:00 and stays listed.
	want := []string{"09:30", "10:00", "10:30"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slots = %v, want %v", slots, want)
		}
	}
}

func TestRequestBookingInvalidDatetime(t *testing.T) {
	fx := newBookingFixture(t)
	_, err := fx.svc.RequestBooking(fx.patient, fx.doctorID, "next monday", "checkup")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRequestBookingUnknownDoctor(t *testing.T) {
	fx := newBookingFixture(t)
	_, err := fx.svc.RequestBooking(fx.patient, 999, fixtureMonday+"T09:00", "checkup")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRequestBookingOutsideAvailability(t *testing.T) {
	fx := newBookingFixture(t)
	tests := []string{
		fixtureMonday + "T08:30", // before the window
		fixtureMonday + "T11:00", // window end is exclusive
		"2025-06-03T09:00",       // wrong weekday
	}
	for _, at := range tests {
		_, err := fx.svc.RequestBooking(fx.patient, fx.doctorID, at, "checkup")
		if !errors.Is(err, domain.ErrOutsideAvailability) {
			t.Errorf("RequestBooking(%s): err = %v, want ErrOutsideAvailability", at, err)
		}
	}
}

func TestRequestBookingSetsReferenceAndPending(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")
	if appt.Reference == "" {
		t.Error("expected a generated reference")
	}
	if appt.Status != domain.StatusPending {
		t.Errorf("status = %q, want pending", appt.Status)
	}
	if got := fx.notifier.byType(domain.EventAppointmentRequested); len(got) != 1 {
		t.Errorf("expected one requested event, got %d", len(got))
	}
}

func TestRequestBookingOverlapConflict(t *testing.T) {
	fx := newBookingFixture(t)
	fx.book(t, fixtureMonday+"T09:00")

	// 09:15 is strictly inside the 30-minute exclusion band.
	_, err := fx.svc.RequestBooking(fx.patient, fx.doctorID, fixtureMonday+"T09:15", "checkup")
	if !errors.Is(err, domain.ErrSlotConflict) {
		t.Errorf("err = %v, want ErrSlotConflict", err)
	}
	// Exactly 30 minutes apart does not conflict.
	fx.book(t, fixtureMonday+"T09:30")
}

func TestRequestBookingSameSlotTwice(t *testing.T) {
	fx := newBookingFixture(t)
	fx.book(t, fixtureMonday+"T10:00")
	_, err := fx.svc.RequestBooking(fx.patient, fx.doctorID, fixtureMonday+"T10:00", "checkup")
	if !errors.Is(err, domain.ErrSlotConflict) {
		t.Errorf("err = %v, want ErrSlotConflict", err)
	}
}

func TestRequestBookingDayFullyBooked(t *testing.T) {
	fx := newBookingFixture(t)
	fx.book(t, fixtureMonday+"T09:00")
	fx.book(t, fixtureMonday+"T10:00")
	fx.book(t, fixtureMonday+"T10:30") // cap of 3 reached

	_, err := fx.svc.RequestBooking(fx.patient, fx.doctorID, fixtureMonday+"T09:30", "checkup")
	if !errors.Is(err, domain.ErrDayFullyBooked) {
		t.Errorf("err = %v, want ErrDayFullyBooked", err)
	}

	slots, err := fx.svc.AvailableSlots(fx.doctorID, fixtureMonday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("a day at capacity should list no slots, got %v", slots)
	}
}

func TestCancelPendingFreesSlot(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")

	if err := fx.svc.Cancel(fx.patient, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// The freed slot is bookable again.
	fx.book(t, fixtureMonday+"T09:00")
}

func TestCancelConfirmedRefused(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")
	if _, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	err := fx.svc.Cancel(fx.patient, appt.ID)
	if !errors.Is(err, domain.ErrConfirmedCannotCancel) {
		t.Errorf("err = %v, want ErrConfirmedCannotCancel", err)
	}
}

func TestCancelOwnershipEnforced(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")
	other := &domain.User{Name: "Eve", Email: "eve@clinic.test", Password: "x", Role: domain.RolePatient}
	if err := fx.users.Create(other); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	if err := fx.svc.Cancel(other.ID, appt.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

// confirmAfterReadRepo flips the stored row to confirmed as soon as it
// is read, like a doctor whose PATCH commits between the cancel path's
// status check and its delete.
type confirmAfterReadRepo struct {
	*fakeAppointmentRepo
}

func (r *confirmAfterReadRepo) FindByID(id uint) (*domain.Appointment, error) {
	appt, err := r.fakeAppointmentRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if stored, ok := r.appts[id]; ok {
		stored.Status = domain.StatusConfirmed
	}
	r.mu.Unlock()
	return appt, nil
}

func TestCancelRacingConfirmationRefused(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")

	racing := &confirmAfterReadRepo{fakeAppointmentRepo: fx.appts}
	svc := NewBookingService(racing, fx.users, fx.profiles, fx.notifier, testLogger()).(*bookingService)
	svc.now = fx.svc.now

	err := svc.Cancel(fx.patient, appt.ID)
	if !errors.Is(err, domain.ErrConfirmedCannotCancel) {
		t.Fatalf("err = %v, want ErrConfirmedCannotCancel", err)
	}
	if _, err := fx.appts.FindByID(appt.ID); err != nil {
		t.Fatalf("appointment must survive the refused cancel: %v", err)
	}
}

// deleteAfterReadRepo drops the stored row as soon as it is read, like a
// cancel committing between the status path's read and its update.
type deleteAfterReadRepo struct {
	*fakeAppointmentRepo
}

func (r *deleteAfterReadRepo) FindByID(id uint) (*domain.Appointment, error) {
	appt, err := r.fakeAppointmentRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	delete(r.appts, id)
	r.mu.Unlock()
	return appt, nil
}

func TestSetStatusRacingCancelNotFound(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")

	racing := &deleteAfterReadRepo{fakeAppointmentRepo: fx.appts}
	svc := NewBookingService(racing, fx.users, fx.profiles, fx.notifier, testLogger()).(*bookingService)
	svc.now = fx.svc.now

	_, err := svc.SetStatus(fx.doctorID, appt.ID, domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetStatusValidation(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")

	if _, err := fx.svc.SetStatus(fx.doctorID, appt.ID, "done"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown status: err = %v, want ErrInvalidInput", err)
	}
	if _, err := fx.svc.SetStatus(fx.doctorID, 999, domain.StatusConfirmed); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown appointment: err = %v, want ErrNotFound", err)
	}
	if _, err := fx.svc.SetStatus(fx.doctorID+100, appt.ID, domain.StatusConfirmed); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign doctor: err = %v, want ErrForbidden", err)
	}
}

func TestRejectionFreesSlotAndCapacity(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")

	if _, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusRejected); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	slots, err := fx.svc.AvailableSlots(fx.doctorID, fixtureMonday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 4 {
		t.Errorf("rejected booking should free its slot, got %v", slots)
	}
	// Another patient can take the freed time.
	fx.book(t, fixtureMonday+"T09:00")
}

func TestReactivationReentersChecks(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")
	if _, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	// The freed slot gets taken while the appointment sits rejected.
	fx.book(t, fixtureMonday+"T09:00")

	_, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrSlotConflict) {
		t.Errorf("reactivating into an occupied slot: err = %v, want ErrSlotConflict", err)
	}
}

func TestReactivationIntoFullDayRefused(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")
	if _, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	fx.book(t, fixtureMonday+"T09:30")
	fx.book(t, fixtureMonday+"T10:00")
	fx.book(t, fixtureMonday+"T10:30") // back at cap 3

	_, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrDayFullyBooked) {
		t.Errorf("err = %v, want ErrDayFullyBooked", err)
	}
}

func TestDeleteAsDoctorRemovesConfirmed(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")
	if _, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := fx.svc.DeleteAsDoctor(fx.doctorID, appt.ID); err != nil {
		t.Fatalf("DeleteAsDoctor: %v", err)
	}
	if _, err := fx.svc.PatientAppointments(fx.patient); err != nil {
		t.Fatalf("PatientAppointments: %v", err)
	}
	fx.book(t, fixtureMonday+"T09:00")
}

func TestConcurrentBookingsRespectCapacity(t *testing.T) {
	fx := newBookingFixture(t)

	// Cap is 3; fire well more requests than that at non-overlapping
	// times. Every declined request must fail with an admission error,
	// and exactly the cap may land.
	times := []string{"09:00", "09:30", "10:00", "10:30"}
	const perSlot = 4

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, hm := range times {
		for i := 0; i < perSlot; i++ {
			wg.Add(1)
			go func(at string) {
				defer wg.Done()
				_, err := fx.svc.RequestBooking(fx.patient, fx.doctorID, at, "checkup")
				switch {
				case err == nil:
					mu.Lock()
					succeeded++
					mu.Unlock()
				case errors.Is(err, domain.ErrSlotConflict), errors.Is(err, domain.ErrDayFullyBooked):
				default:
					t.Errorf("unexpected booking error: %v", err)
				}
			}(fixtureMonday + "T" + hm)
		}
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("%d bookings admitted, capacity is 3", succeeded)
	}
	occ, err := fx.appts.OccupancyForDay(fx.doctorID, time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("OccupancyForDay: %v", err)
	}
	if occ.CountForDay != 3 {
		t.Errorf("stored count = %d, want 3", occ.CountForDay)
	}
	for i, a := range occ.BookedTimes {
		for _, b := range occ.BookedTimes[i+1:] {
			diff := a.Sub(b)
			if diff < 0 {
				diff = -diff
			}
			if diff < 30*time.Minute {
				t.Errorf("admitted bookings overlap: %v and %v", a, b)
			}
		}
	}
}

func TestSendDailyReminders(t *testing.T) {
	fx := newBookingFixture(t)
	appt := fx.book(t, fixtureMonday+"T09:00")
	if _, err := fx.svc.SetStatus(fx.doctorID, appt.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	fx.book(t, fixtureMonday+"T10:00") // stays pending, no reminder

	// Make the fixture Monday "tomorrow".
	fx.svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local)
	}
	fx.svc.SendDailyReminders()

	got := fx.notifier.byType(domain.EventAppointmentReminder)
	if len(got) != 1 {
		t.Fatalf("reminder events = %d, want 1", len(got))
	}
	if got[0].Reference != appt.Reference {
		t.Errorf("reminder reference = %q, want %q", got[0].Reference, appt.Reference)
	}
}
