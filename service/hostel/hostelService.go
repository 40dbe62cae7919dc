package hostelsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"

	"hostelfinder/model"
	hostelrepo "hostelfinder/repository/hostel"
	ledgerrepo "hostelfinder/repository/ledger"
)

type ErrCode string

const (
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrBadInput          ErrCode = "BAD_INPUT"
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrCapacityBelowHeld ErrCode = "CAPACITY_BELOW_HELD"
	ErrHasActiveBookings ErrCode = "HAS_ACTIVE_BOOKINGS"
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
func wrap(c ErrCode, d string) error { return codedError{code: c, detail: d} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo = hostelrepo.Repo

// Cache is satisfied by cache.HostelCache. The version read before a
// database load is handed back to the setter, which drops the write when
// an invalidation happened in between.
type Cache interface {
	GetHostel(ctx context.Context, id int64) (*model.Hostel, bool, error)
	HostelVersion(ctx context.Context, id int64) (int64, error)
	SetHostel(ctx context.Context, h *model.Hostel, ver int64) error
	GetSearch(ctx context.Context, key string) ([]model.Hostel, bool, error)
	SearchVersion(ctx context.Context) (int64, error)
	SetSearch(ctx context.Context, key string, hs []model.Hostel, ver int64) error
	InvalidateHostel(ctx context.Context, id int64) error
}

const (
	defaultLedgerLimit = 100
	// bounds a shared detail load once it no longer follows any caller
	loadTimeout = 5 * time.Second
)

type Service interface {
	List(ctx context.Context) ([]model.Hostel, error)
	Get(ctx context.Context, id int64) (*model.Hostel, error)
	Search(ctx context.Context, f model.HostelFilter) ([]model.Hostel, error)

	Create(ctx context.Context, actorID int64, role string, req model.HostelReq) (*model.Hostel, error)
	Update(ctx context.Context, actorID, id int64, req model.HostelReq) (*model.Hostel, error)
	Delete(ctx context.Context, actorID, id int64) error

	// Ledger lists the most recent inventory movements, owner only.
	Ledger(ctx context.Context, actorID, id int64, limit int) ([]model.LedgerEntry, error)
}

type service struct {
	r      Repo
	ledger ledgerrepo.Repo
	cache  Cache
	log    *slog.Logger
	group  singleflight.Group
}

// New wires the hostel catalog. cache may be nil when redis is not configured.
func New(r Repo, ledger ledgerrepo.Repo, cache Cache, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{r: r, ledger: ledger, cache: cache, log: log}
}

func (s *service) List(ctx context.Context) ([]model.Hostel, error) { return s.r.List(ctx) }

func (s *service) Get(ctx context.Context, id int64) (*model.Hostel, error) {
	if s.cache != nil {
		h, ok, err := s.cache.GetHostel(ctx, id)
		if err != nil {
			s.log.Warn("hostel cache get", "hostel_id", id, "err", err)
		} else if ok {
			return h, nil
		}
	}

	// concurrent misses share one database read; it is detached from the
	// first caller so that caller going away does not fail the others
	ch := s.group.DoChan(fmt.Sprintf("hostel:%d", id), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.load(lctx, id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		h := *r.Val.(*model.Hostel)
		return &h, nil
	}
}

func (s *service) load(ctx context.Context, id int64) (*model.Hostel, error) {
	var (
		ver       int64
		cacheable = s.cache != nil
	)
	if cacheable {
		var err error
		if ver, err = s.cache.HostelVersion(ctx, id); err != nil {
			s.log.Warn("hostel cache version", "hostel_id", id, "err", err)
			cacheable = false
		}
	}
	h, err := s.r.Detail(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	if cacheable {
		if err := s.cache.SetHostel(ctx, h, ver); err != nil {
			s.log.Warn("hostel cache set", "hostel_id", id, "err", err)
		}
	}
	return h, nil
}

func (s *service) Search(ctx context.Context, f model.HostelFilter) ([]model.Hostel, error) {
	f.Pincode = strings.TrimSpace(f.Pincode)
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return nil, wrap(ErrBadInput, "maxPrice must not be negative")
	}
	key := SearchKey(f)

	var (
		ver       int64
		cacheable = s.cache != nil
	)
	if cacheable {
		hs, ok, err := s.cache.GetSearch(ctx, key)
		if err != nil {
			s.log.Warn("search cache get", "key", key, "err", err)
		} else if ok {
			return hs, nil
		}
		if ver, err = s.cache.SearchVersion(ctx); err != nil {
			s.log.Warn("search cache version", "err", err)
			cacheable = false
		}
	}
	hs, err := s.r.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.SetSearch(ctx, key, hs, ver); err != nil {
			s.log.Warn("search cache set", "key", key, "err", err)
		}
	}
	return hs, nil
}

// SearchKey is the cache field for a normalized filter.
func SearchKey(f model.HostelFilter) string {
	price := ""
	if f.MaxPrice != nil {
		price = f.MaxPrice.String()
	}
	fac := append([]string(nil), f.Facilities...)
	sort.Strings(fac)
	return strings.Join([]string{f.Pincode, price, strings.Join(fac, ",")}, "|")
}

func (s *service) Create(ctx context.Context, actorID int64, role string, req model.HostelReq) (*model.Hostel, error) {
	if model.UserType(role) != model.UserOwner {
		return nil, wrap(ErrForbidden, "only owners can list hostels")
	}
	if err := checkReq(req); err != nil {
		return nil, err
	}
	h := &model.Hostel{
		OwnerID:        actorID,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Address:        req.Address,
		Pincode:        strings.TrimSpace(req.Pincode),
		PricePerNight:  req.PricePerNight,
		TotalRooms:     req.TotalRooms,
		AvailableRooms: req.TotalRooms,
		Facilities:     req.Facilities,
		Images:         req.Images,
	}
	if err := s.r.Create(ctx, h); err != nil {
		return nil, err
	}
	s.invalidate(ctx, h.ID)
	s.log.Info("hostel created", "hostel_id", h.ID, "owner_id", actorID, "rooms", h.TotalRooms)
	return h, nil
}

func (s *service) Update(ctx context.Context, actorID, id int64, req model.HostelReq) (*model.Hostel, error) {
	if err := checkReq(req); err != nil {
		return nil, err
	}
	h, err := s.r.UpdateLocked(ctx, id, func(h *model.Hostel) (*model.LedgerEntry, error) {
		if h.OwnerID != actorID {
			return nil, wrap(ErrForbidden, "hostel belongs to another owner")
		}
		// held rooms stay held; only the free pool moves with capacity
		delta := req.TotalRooms - h.TotalRooms
		available := h.AvailableRooms + delta
		if available < 0 {
			return nil, wrap(ErrCapacityBelowHeld,
				fmt.Sprintf("%d rooms are held, capacity %d is too small", h.HeldRooms(), req.TotalRooms))
		}
		h.Name = strings.TrimSpace(req.Name)
		h.Description = req.Description
		h.Address = req.Address
		h.Pincode = strings.TrimSpace(req.Pincode)
		h.PricePerNight = req.PricePerNight
		h.TotalRooms = req.TotalRooms
		h.AvailableRooms = available
		h.Facilities = req.Facilities
		h.Images = req.Images
		if delta == 0 {
			return nil, nil
		}
		return &model.LedgerEntry{
			HostelID:       h.ID,
			EntryType:      model.LedgerAdjust,
			Delta:          delta,
			AvailableAfter: available,
		}, nil
	})
	if err != nil {
		return nil, notFound(err, id)
	}
	s.invalidate(ctx, id)
	return h, nil
}

func (s *service) Delete(ctx context.Context, actorID, id int64) error {
	err := s.r.DeleteLocked(ctx, id, func(h *model.Hostel, active int) error {
		if h.OwnerID != actorID {
			return wrap(ErrForbidden, "hostel belongs to another owner")
		}
		if active > 0 {
			return wrap(ErrHasActiveBookings, fmt.Sprintf("%d pending or confirmed bookings", active))
		}
		return nil
	})
	if err != nil {
		return notFound(err, id)
	}
	s.invalidate(ctx, id)
	s.log.Info("hostel deleted", "hostel_id", id, "owner_id", actorID)
	return nil
}

func (s *service) Ledger(ctx context.Context, actorID, id int64, limit int) ([]model.LedgerEntry, error) {
	h, err := s.r.Detail(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	if h.OwnerID != actorID {
		return nil, wrap(ErrForbidden, "only the hostel owner can read its ledger")
	}
	if limit <= 0 || limit > 1000 {
		limit = defaultLedgerLimit
	}
	return s.ledger.ListByHostel(ctx, id, limit)
}

func (s *service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateHostel(ctx, id); err != nil {
		s.log.Warn("hostel cache invalidate", "hostel_id", id, "err", err)
	}
}

func checkReq(req model.HostelReq) error {
	switch {
	case strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Pincode) == "":
		return wrap(ErrBadInput, "name and pincode are required")
	case req.TotalRooms < 1:
		return wrap(ErrBadInput, "total_rooms must be at least 1")
	case req.PricePerNight.IsNegative():
		return wrap(ErrBadInput, "price_per_night must not be negative")
	}
	return nil
}

func notFound(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return wrap(ErrNotFound, fmt.Sprintf("hostel %d not found", id))
	}
	return err
}
