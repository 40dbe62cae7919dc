package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"hostelfinder/model"
	bookingrepo "hostelfinder/repository/booking"
	"hostelfinder/util/database"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound                      ErrCode = "NOT_FOUND"
	ErrBadInput                      ErrCode = "BAD_INPUT"
	ErrForbidden                     ErrCode = "FORBIDDEN"
	ErrPastCheckInDate               ErrCode = "PAST_CHECK_IN_DATE"
	ErrInvalidDateRange              ErrCode = "INVALID_DATE_RANGE"
	ErrInsufficientAvailableRooms    ErrCode = "INSUFFICIENT_AVAILABLE_ROOMS"
	ErrInsufficientRoomsForDateRange ErrCode = "INSUFFICIENT_ROOMS_FOR_DATE_RANGE"
	ErrInvalidTransition             ErrCode = "INVALID_TRANSITION"
	ErrConcurrencyConflict           ErrCode = "CONCURRENCY_CONFLICT"
)

type codedError struct {
	code   ErrCode
	detail string
}

func (e codedError) Error() string {
	if e.detail == "" {
		return string(e.code)
	}
	return string(e.code) + ": " + e.detail
}
func (e codedError) Code() ErrCode   { return e.code }
func (e codedError) Detail() string  { return e.detail }
func wrap(c ErrCode, d string) error { return codedError{code: c, detail: d} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type (
	Repo = bookingrepo.Repo
	Unit = bookingrepo.Unit
)

// Publisher receives lifecycle events after commit.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Invalidator drops cached hostel reads once availability changes.
type Invalidator interface {
	InvalidateHostel(ctx context.Context, hostelID int64) error
}

// Event is the payload published for every committed transition.
type Event struct {
	EventID       string              `json:"event_id"`
	Type          string              `json:"type"`
	BookingID     int64               `json:"booking_id"`
	HostelID      int64               `json:"hostel_id"`
	UserID        int64               `json:"user_id"`
	Status        model.BookingStatus `json:"status"`
	NumberOfRooms int                 `json:"number_of_rooms"`
	CheckIn       string              `json:"check_in"`
	CheckOut      string              `json:"check_out"`
	TotalPrice    string              `json:"total_price"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

type Service interface {
	// CreateBooking validates and reserves rooms; the booking starts Pending.
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	// GetBooking is visible to the guest and to the hostel owner.
	GetBooking(ctx context.Context, actorID, bookingID int64) (*model.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error)
	// ListHostelBookings is restricted to the hostel owner.
	ListHostelBookings(ctx context.Context, actorID, hostelID int64) ([]model.Booking, error)

	// CancelBooking releases the booking's rooms back to the hostel.
	CancelBooking(ctx context.Context, actorID, bookingID int64) (*model.Booking, error)
	// ConfirmBooking is done by the hostel owner and leaves inventory alone.
	ConfirmBooking(ctx context.Context, actorID, bookingID int64) (*model.Booking, error)
	// CompleteBooking closes a confirmed stay. It is driven by the
	// completion sweep, not by users.
	CompleteBooking(ctx context.Context, bookingID int64) (*model.Booking, error)
}

var tracer = otel.Tracer("hostelfinder/service/booking")

// inventoryEffect is the pool movement caused by a lifecycle event.
// Confirm and Complete are absent: rooms were reserved at creation.
var inventoryEffect = map[model.BookingEvent]model.LedgerType{
	model.EventCancel: model.LedgerRelease,
}

var eventTypes = map[model.BookingEvent]string{
	model.EventConfirm:  "booking.confirmed",
	model.EventCancel:   "booking.cancelled",
	model.EventComplete: "booking.completed",
}

// ----- Service implementation -----

type service struct {
	r          Repo
	pub        Publisher
	cache      Invalidator
	log        *slog.Logger
	maxRetries int
	now        func() time.Time
}

func New(r Repo, pub Publisher, cache Invalidator, log *slog.Logger, maxRetries int) Service {
	if log == nil {
		log = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &service{
		r:          r,
		pub:        pub,
		cache:      cache,
		log:        log,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	if req.NumberOfRooms < 1 {
		return nil, wrap(ErrBadInput, "number of rooms must be at least 1")
	}
	if _, err := s.r.FindUserByID(ctx, req.UserID); err != nil {
		return nil, notFound(err, "user", req.UserID)
	}

	checkIn, checkOut := model.DateOf(req.CheckIn), model.DateOf(req.CheckOut)
	var created *model.Booking

	err := s.atomic(ctx, "create", req.HostelID, func(ctx context.Context, u Unit) error {
		h, err := u.LockHostel(ctx, req.HostelID)
		if err != nil {
			return notFound(err, "hostel", req.HostelID)
		}
		overlapping, err := u.FindOverlappingBookings(ctx, h.ID, checkIn, checkOut)
		if err != nil {
			return err
		}
		price, err := Validate(req, *h, overlapping, s.now())
		if err != nil {
			return err
		}

		now := s.now()
		b := &model.Booking{
			UserID:        req.UserID,
			HostelID:      h.ID,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			NumberOfRooms: req.NumberOfRooms,
			TotalPrice:    price,
			Status:        model.BookingPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := u.InsertBooking(ctx, b); err != nil {
			return err
		}
		if err := moveInventory(ctx, u, h, b, model.LedgerReserve); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		"booking_id", created.ID, "hostel_id", created.HostelID, "user_id", created.UserID,
		"rooms", created.NumberOfRooms, "total_price", created.TotalPrice.StringFixed(2))
	s.afterCommit(ctx, "booking.created", created)
	return created, nil
}

func (s *service) GetBooking(ctx context.Context, actorID, bookingID int64) (*model.Booking, error) {
	b, err := s.r.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, notFound(err, "booking", bookingID)
	}
	if b.UserID == actorID {
		return b, nil
	}
	h, err := s.r.FindHostelByID(ctx, b.HostelID)
	if err != nil {
		return nil, notFound(err, "hostel", b.HostelID)
	}
	if h.OwnerID != actorID {
		return nil, wrap(ErrForbidden, "booking belongs to another user")
	}
	return b, nil
}

func (s *service) ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	if _, err := s.r.FindUserByID(ctx, userID); err != nil {
		return nil, notFound(err, "user", userID)
	}
	return s.r.FindBookingsByUser(ctx, userID)
}

func (s *service) ListHostelBookings(ctx context.Context, actorID, hostelID int64) ([]model.Booking, error) {
	h, err := s.r.FindHostelByID(ctx, hostelID)
	if err != nil {
		return nil, notFound(err, "hostel", hostelID)
	}
	if h.OwnerID != actorID {
		return nil, wrap(ErrForbidden, "only the hostel owner can list its bookings")
	}
	return s.r.FindBookingsByHostel(ctx, hostelID)
}

func (s *service) CancelBooking(ctx context.Context, actorID, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, bookingID, model.EventCancel, func(b *model.Booking, h *model.Hostel) error {
		if b.UserID != actorID && h.OwnerID != actorID {
			return wrap(ErrForbidden, "only the guest or the hostel owner can cancel")
		}
		return nil
	})
}

func (s *service) ConfirmBooking(ctx context.Context, actorID, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, bookingID, model.EventConfirm, func(_ *model.Booking, h *model.Hostel) error {
		if h.OwnerID != actorID {
			return wrap(ErrForbidden, "only the hostel owner can confirm")
		}
		return nil
	})
}

func (s *service) CompleteBooking(ctx context.Context, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, bookingID, model.EventComplete, nil)
}

// transition applies ev to a stored booking under the hostel lock, with the
// inventory side effect the event carries.
func (s *service) transition(ctx context.Context, bookingID int64, ev model.BookingEvent, authorize func(*model.Booking, *model.Hostel) error) (*model.Booking, error) {
	// the unlocked read only tells us which hostel to lock
	cur, err := s.r.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, notFound(err, "booking", bookingID)
	}

	var out *model.Booking
	var from model.BookingStatus
	err = s.atomic(ctx, string(ev), cur.HostelID, func(ctx context.Context, u Unit) error {
		h, err := u.LockHostel(ctx, cur.HostelID)
		if err != nil {
			return notFound(err, "hostel", cur.HostelID)
		}
		b, err := u.LockBooking(ctx, bookingID)
		if err != nil {
			return notFound(err, "booking", bookingID)
		}
		if authorize != nil {
			if err := authorize(b, h); err != nil {
				return err
			}
		}

		next, err := b.Status.Next(ev)
		if err != nil {
			return wrap(ErrInvalidTransition,
				fmt.Sprintf("cannot %s booking %d in status %s", ev, b.ID, b.Status))
		}
		from = b.Status
		b.Status = next
		b.UpdatedAt = s.now()
		if err := u.UpdateBookingStatus(ctx, b); err != nil {
			return err
		}
		if entry, ok := inventoryEffect[ev]; ok {
			if err := moveInventory(ctx, u, h, b, entry); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking transition",
		"booking_id", out.ID, "hostel_id", out.HostelID, "event", ev, "from", from, "to", out.Status)
	s.afterCommit(ctx, eventTypes[ev], out)
	return out, nil
}

// moveInventory shifts the hostel's free pool by the booking's rooms and
// records the movement, refusing to leave [0, totalRooms].
func moveInventory(ctx context.Context, u Unit, h *model.Hostel, b *model.Booking, entry model.LedgerType) error {
	delta := entry.Sign() * b.NumberOfRooms
	after := h.AvailableRooms + delta
	if after < 0 || after > h.TotalRooms {
		return fmt.Errorf("inventory for hostel %d would leave bounds: %d of %d", h.ID, after, h.TotalRooms)
	}
	if err := u.SaveAvailableRooms(ctx, h.ID, after); err != nil {
		return err
	}
	if err := u.InsertLedger(ctx, &model.LedgerEntry{
		HostelID:       h.ID,
		BookingID:      b.ID,
		EntryType:      entry,
		Delta:          delta,
		AvailableAfter: after,
	}); err != nil {
		return err
	}
	h.AvailableRooms = after
	return nil
}

// atomic runs fn as one storage unit, retrying lock and serialization
// conflicts up to maxRetries times.
func (s *service) atomic(ctx context.Context, op string, hostelID int64, fn func(ctx context.Context, u Unit) error) error {
	ctx, span := tracer.Start(ctx, "booking."+op)
	defer span.End()
	span.SetAttributes(attribute.Int64("hostel.id", hostelID))

	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.r.Atomic(ctx, fn)
		if !errors.Is(err, database.ErrConflict) {
			break
		}
		s.log.Warn("booking unit conflict", "op", op, "hostel_id", hostelID, "attempt", attempt+1, "err", err)
		if ctx.Err() != nil {
			break
		}
	}
	if errors.Is(err, database.ErrConflict) {
		err = wrap(ErrConcurrencyConflict,
			fmt.Sprintf("%s on hostel %d still contended after %d attempts", op, hostelID, s.maxRetries+1))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *service) afterCommit(ctx context.Context, eventType string, b *model.Booking) {
	if s.cache != nil {
		if err := s.cache.InvalidateHostel(ctx, b.HostelID); err != nil {
			s.log.Warn("hostel cache invalidate", "hostel_id", b.HostelID, "err", err)
		}
	}
	if s.pub == nil {
		return
	}
	ev := Event{
		EventID:       uuid.NewString(),
		Type:          eventType,
		BookingID:     b.ID,
		HostelID:      b.HostelID,
		UserID:        b.UserID,
		Status:        b.Status,
		NumberOfRooms: b.NumberOfRooms,
		CheckIn:       b.CheckIn.Format(model.DateLayout),
		CheckOut:      b.CheckOut.Format(model.DateLayout),
		TotalPrice:    b.TotalPrice.StringFixed(2),
		OccurredAt:    b.UpdatedAt,
	}
	if err := s.pub.PublishJSON(ctx, eventType, ev); err != nil {
		s.log.Warn("publish booking event", "type", eventType, "booking_id", b.ID, "err", err)
	}
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return wrap(ErrNotFound, fmt.Sprintf("%s %d not found", what, id))
	}
	return err
}
