package floor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yeremiapane/floorsync/models"
	"github.com/yeremiapane/floorsync/store"
)

// Batch operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// GuestFields is the enumerated partial-update set for a guest. Unknown
// fields are rejected at the JSON boundary instead of silently applied.
type GuestFields struct {
	RestaurantID        *string        `json:"restaurant_id"`
	FirstName           *string        `json:"first_name"`
	LastName            *string        `json:"last_name"`
	Email               *string        `json:"email"`
	Phone               *string        `json:"phone"`
	PartySize           *int           `json:"party_size"`
	Status              *string        `json:"status"`
	TableID             OptionalString `json:"table_id"`
	DietaryRestrictions datatypes.JSON `json:"dietary_restrictions"`
	SpecialRequests     *string        `json:"special_requests"`
	Notes               *string        `json:"notes"`
	CheckInTime         *time.Time     `json:"check_in_time"`
	SeatedTime          *time.Time     `json:"seated_time"`
	FinishedTime        *time.Time     `json:"finished_time"`
}

// TableFields is the enumerated partial-update set for a table.
type TableFields struct {
	RestaurantID   *string        `json:"restaurant_id"`
	TableNumber    *string        `json:"table_number"`
	Capacity       *int           `json:"capacity"`
	MinPartySize   *int           `json:"min_party_size"`
	MaxPartySize   *int           `json:"max_party_size"`
	PositionX      *float64       `json:"position_x"`
	PositionY      *float64       `json:"position_y"`
	Shape          *string        `json:"shape"`
	Section        *string        `json:"section"`
	Status         *string        `json:"status"`
	CurrentGuestID OptionalString `json:"current_guest_id"`
	Notes          *string        `json:"notes"`
}

type GuestOperation struct {
	ID        string       `json:"id" binding:"required"`
	Operation string       `json:"operation" binding:"required"`
	Data      *GuestFields `json:"data"`
}

type TableOperation struct {
	ID        string       `json:"id" binding:"required"`
	Operation string       `json:"operation" binding:"required"`
	Data      *TableFields `json:"data"`
}

// BatchRequest is one atomic unit of guest and table operations.
// Operations are identified by target entity id; a retried batch with
// identical payload reproduces the same end state.
type BatchRequest struct {
	TransactionID string           `json:"transaction_id"`
	RestaurantID  string           `json:"restaurant_id" binding:"required"`
	Timestamp     string           `json:"timestamp"`
	Guests        []GuestOperation `json:"guests"`
	Tables        []TableOperation `json:"tables"`
}

type OperationResult struct {
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	Status     string      `json:"status"` // created | updated | deleted | error
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type BatchResponse struct {
	Success       bool              `json:"success"`
	TransactionID string            `json:"transaction_id"`
	ProcessedAt   time.Time         `json:"processed_at"`
	Results       []OperationResult `json:"results"`
	Errors        []string          `json:"errors,omitempty"`
	RolledBack    bool              `json:"rolled_back,omitempty"`

	// Deltas carry the committed post-state for fan-out. Empty unless
	// Success is true.
	Deltas []Delta `json:"-"`

	// Errs keeps the typed errors behind Errors for callers that map
	// them to transport codes.
	Errs []error `json:"-"`
}

// Processor validates and applies a batch as one storage transaction.
// Phase one is read-only; phase two applies creates, then guest updates,
// then table updates, then deletes, re-checking the critical invariants
// inside the transaction since the validation snapshot may be stale.
type Processor struct {
	store store.Store
	sync  *Synchronizer
	log   *logrus.Logger
}

func NewProcessor(st store.Store, sy *Synchronizer, log *logrus.Logger) *Processor {
	return &Processor{store: st, sync: sy, log: log}
}

func (p *Processor) ExecuteBatch(req BatchRequest) BatchResponse {
	resp := BatchResponse{
		TransactionID: req.TransactionID,
		ProcessedAt:   time.Now().UTC(),
	}

	if results, errs := p.validate(req); len(errs) > 0 {
		p.log.Infof("batch %s rejected: %d validation errors", req.TransactionID, len(errs))
		resp.Results = results
		resp.Errs = errs
		for _, err := range errs {
			resp.Errors = append(resp.Errors, err.Error())
		}
		return resp
	}

	var results []OperationResult
	var deltas []Delta

	err := p.store.Transaction(func(tx store.Store) error {
		results = nil
		deltas = nil

		apply := func(r OperationResult, d []Delta, err error) error {
			if err != nil {
				return err
			}
			results = append(results, r)
			deltas = append(deltas, d...)
			return nil
		}

		for _, op := range req.Guests {
			if op.Operation != OpCreate {
				continue
			}
			if err := apply(p.applyGuestCreate(tx, req, op)); err != nil {
				return err
			}
		}
		for _, op := range req.Tables {
			if op.Operation != OpCreate {
				continue
			}
			if err := apply(p.applyTableCreate(tx, req, op)); err != nil {
				return err
			}
		}
		for _, op := range req.Guests {
			if op.Operation != OpUpdate {
				continue
			}
			if err := apply(p.applyGuestUpdate(tx, op)); err != nil {
				return err
			}
		}
		for _, op := range req.Tables {
			if op.Operation != OpUpdate {
				continue
			}
			if err := apply(p.applyTableUpdate(tx, op)); err != nil {
				return err
			}
		}
		for _, op := range req.Guests {
			if op.Operation != OpDelete {
				continue
			}
			if err := apply(p.applyGuestDelete(tx, op)); err != nil {
				return err
			}
		}
		for _, op := range req.Tables {
			if op.Operation != OpDelete {
				continue
			}
			if err := apply(p.applyTableDelete(tx, op)); err != nil {
				return err
			}
		}

		// Audit trail commits or rolls back with the batch itself.
		for _, r := range results {
			entry := &models.ActivityLog{
				RestaurantID: req.RestaurantID,
				Action:       r.Status,
				EntityType:   r.EntityType,
				EntityID:     r.EntityID,
				Detail:       req.TransactionID,
			}
			if err := tx.LogActivity(entry); err != nil {
				return &PersistenceError{Err: err}
			}
		}
		return nil
	})

	if err != nil {
		p.log.Errorf("batch %s rolled back: %v", req.TransactionID, err)
		resp.Results = nil
		resp.Errors = []string{err.Error()}
		resp.Errs = []error{err}
		resp.RolledBack = true
		return resp
	}

	resp.Success = true
	resp.Results = results
	resp.Deltas = dedupeDeltas(deltas)
	p.log.Infof("batch %s committed: %d operations, %d deltas",
		req.TransactionID, len(results), len(resp.Deltas))
	return resp
}

// validate is phase one: every operation is checked before any is
// applied. A single failure rejects the whole batch.
func (p *Processor) validate(req BatchRequest) ([]OperationResult, []error) {
	var results []OperationResult
	var errs []error

	fail := func(entityType, id string, err error) {
		results = append(results, OperationResult{
			EntityType: entityType, EntityID: id, Status: "error", Error: err.Error(),
		})
		errs = append(errs, fmt.Errorf("%s %s: %w", entityType, id, err))
	}

	for _, op := range req.Guests {
		if err := p.validateGuestOp(req, op); err != nil {
			fail(EntityGuest, op.ID, err)
		}
	}
	for _, op := range req.Tables {
		if err := p.validateTableOp(req, op); err != nil {
			fail(EntityTable, op.ID, err)
		}
	}
	return results, errs
}

func (p *Processor) validateGuestOp(req BatchRequest, op GuestOperation) error {
	switch op.Operation {
	case OpCreate:
		data := op.Data
		if data == nil {
			return validationf("guest create requires data")
		}
		if data.RestaurantID == nil || *data.RestaurantID == "" {
			return validationf("guest create missing required field restaurant_id")
		}
		if data.FirstName == nil || *data.FirstName == "" {
			return validationf("guest create missing required field first_name")
		}
		if data.PartySize == nil {
			return validationf("guest create missing required field party_size")
		}
		if *data.PartySize < 1 {
			return validationf("party size must be positive")
		}
		if data.Status != nil && !models.ValidGuestStatus(*data.Status) {
			return validationf("invalid guest status %q", *data.Status)
		}
		if data.TableID.Set && data.TableID.Value != nil {
			table, err := p.findTableChecked(p.store, *data.TableID.Value)
			if err != nil {
				return err
			}
			if *data.PartySize > table.Capacity {
				return conflictf("party size %d exceeds table %s capacity %d",
					*data.PartySize, table.ID, table.Capacity)
			}
		}
		// Create replay policy: same id with equal data is a no-op,
		// anything else is a conflict.
		if existing, err := p.store.FindGuest(op.ID); err == nil {
			if !guestMatchesFields(existing, data) {
				return conflictf("guest %s already exists with different data", op.ID)
			}
		} else if !store.IsNotFound(err) {
			return &PersistenceError{Err: err}
		}
		return nil

	case OpUpdate:
		if op.Data == nil {
			return validationf("guest update requires data")
		}
		guest, err := p.findGuestChecked(p.store, op.ID)
		if err != nil {
			return err
		}
		data := op.Data
		if data.PartySize != nil && *data.PartySize < 1 {
			return validationf("party size must be positive")
		}
		if data.Status != nil && !models.ValidGuestStatus(*data.Status) {
			return validationf("invalid guest status %q", *data.Status)
		}
		if data.TableID.Set && data.TableID.Value != nil {
			table, err := p.findTableChecked(p.store, *data.TableID.Value)
			if err != nil {
				return err
			}
			partySize := guest.PartySize
			if data.PartySize != nil {
				partySize = *data.PartySize
			}
			if partySize > table.Capacity {
				return conflictf("party size %d exceeds table %s capacity %d",
					partySize, table.ID, table.Capacity)
			}
		}
		return nil

	case OpDelete:
		if _, err := p.findGuestChecked(p.store, op.ID); err != nil {
			return err
		}
		active, err := p.store.HasActiveReservation(op.ID)
		if err != nil {
			return &PersistenceError{Err: err}
		}
		if active {
			return conflictf("guest %s has an active reservation", op.ID)
		}
		return nil

	default:
		return validationf("unknown operation %q", op.Operation)
	}
}

func (p *Processor) validateTableOp(req BatchRequest, op TableOperation) error {
	switch op.Operation {
	case OpCreate:
		data := op.Data
		if data == nil {
			return validationf("table create requires data")
		}
		if data.RestaurantID == nil || *data.RestaurantID == "" {
			return validationf("table create missing required field restaurant_id")
		}
		if data.TableNumber == nil || *data.TableNumber == "" {
			return validationf("table create missing required field table_number")
		}
		if data.Capacity == nil {
			return validationf("table create missing required field capacity")
		}
		if *data.Capacity < 1 {
			return validationf("table capacity must be positive")
		}
		if err := validatePosition(data.PositionX, data.PositionY); err != nil {
			return err
		}
		if data.Status != nil && !models.ValidTableStatus(*data.Status) {
			return validationf("invalid table status %q", *data.Status)
		}
		if data.Status != nil && *data.Status == models.TableStatusOccupied &&
			(!data.CurrentGuestID.Set || data.CurrentGuestID.Value == nil) {
			return validationf("occupied table requires current_guest_id")
		}
		if existing, err := p.store.FindTable(op.ID); err == nil {
			if !tableMatchesFields(existing, data) {
				return conflictf("table %s already exists with different data", op.ID)
			}
			return nil
		} else if !store.IsNotFound(err) {
			return &PersistenceError{Err: err}
		}
		if other, err := p.store.FindTableByNumber(*data.RestaurantID, *data.TableNumber); err == nil && other.ID != op.ID {
			return conflictf("table number %q already in use", *data.TableNumber)
		} else if err != nil && !store.IsNotFound(err) {
			return &PersistenceError{Err: err}
		}
		return nil

	case OpUpdate:
		if op.Data == nil {
			return validationf("table update requires data")
		}
		table, err := p.findTableChecked(p.store, op.ID)
		if err != nil {
			return err
		}
		data := op.Data
		if data.TableNumber != nil && *data.TableNumber != table.TableNumber {
			if other, err := p.store.FindTableByNumber(table.RestaurantID, *data.TableNumber); err == nil && other.ID != op.ID {
				return conflictf("table number %q already in use", *data.TableNumber)
			} else if err != nil && !store.IsNotFound(err) {
				return &PersistenceError{Err: err}
			}
		}
		if data.Capacity != nil && *data.Capacity < 1 {
			return validationf("table capacity must be positive")
		}
		if err := validatePosition(data.PositionX, data.PositionY); err != nil {
			return err
		}
		if data.Status != nil && !models.ValidTableStatus(*data.Status) {
			return validationf("invalid table status %q", *data.Status)
		}
		// A table never holds a guest reference while not occupied.
		if data.Status != nil && *data.Status == models.TableStatusOccupied &&
			data.CurrentGuestID.Set && data.CurrentGuestID.Value == nil {
			return validationf("occupied table requires current_guest_id")
		}
		if data.Status != nil && *data.Status != models.TableStatusOccupied &&
			data.CurrentGuestID.Set && data.CurrentGuestID.Value != nil {
			return validationf("current_guest_id requires status occupied")
		}
		if data.CurrentGuestID.Set && data.CurrentGuestID.Value != nil {
			guest, err := p.findGuestChecked(p.store, *data.CurrentGuestID.Value)
			if err != nil {
				return err
			}
			capacity := table.Capacity
			if data.Capacity != nil {
				capacity = *data.Capacity
			}
			if guest.PartySize > capacity {
				return conflictf("party size %d exceeds table %s capacity %d",
					guest.PartySize, table.ID, capacity)
			}
		} else if data.Capacity != nil && table.CurrentGuestID != nil {
			guest, err := p.store.FindGuest(*table.CurrentGuestID)
			if err == nil && guest.PartySize > *data.Capacity {
				return conflictf("cannot reduce table capacity below current guest party size")
			} else if err != nil && !store.IsNotFound(err) {
				return &PersistenceError{Err: err}
			}
		}
		return nil

	case OpDelete:
		table, err := p.findTableChecked(p.store, op.ID)
		if err != nil {
			return err
		}
		if table.Occupied() {
			return conflictf("cannot delete table %s: currently occupied by guest %s",
				table.ID, *table.CurrentGuestID)
		}
		return nil

	default:
		return validationf("unknown operation %q", op.Operation)
	}
}

func (p *Processor) applyGuestCreate(tx store.Store, req BatchRequest, op GuestOperation) (OperationResult, []Delta, error) {
	data := op.Data

	// Re-check inside the transaction: an identical retry is a no-op.
	if existing, err := tx.FindGuest(op.ID); err == nil {
		if !guestMatchesFields(existing, data) {
			return OperationResult{}, nil, conflictf("guest %s already exists with different data", op.ID)
		}
		return OperationResult{EntityType: EntityGuest, EntityID: op.ID, Status: "created", Data: existing}, nil, nil
	} else if !store.IsNotFound(err) {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}

	now := time.Now().UTC()
	guest := &models.Guest{
		ID:           op.ID,
		RestaurantID: *data.RestaurantID,
		PartySize:    *data.PartySize,
		Status:       models.GuestStatusWaitlist,
		CheckInTime:  &now,
	}
	applyGuestFields(guest, data)
	if data.Status != nil {
		guest.Status = *data.Status
	}
	if err := tx.CreateGuest(guest); err != nil {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}

	deltas := []Delta{{EntityType: EntityGuest, EntityID: guest.ID, Action: ActionCreated, Data: guest}}
	if data.TableID.Set && data.TableID.Value != nil {
		if err := p.recheckCapacity(tx, guest, *data.TableID.Value); err != nil {
			return OperationResult{}, nil, err
		}
		d, err := p.sync.Assign(tx, guest, data.TableID.Value, data.Status != nil)
		if err != nil {
			return OperationResult{}, nil, err
		}
		deltas = append(deltas, d...)
	}
	return OperationResult{EntityType: EntityGuest, EntityID: guest.ID, Status: "created", Data: guest}, deltas, nil
}

func (p *Processor) applyGuestUpdate(tx store.Store, op GuestOperation) (OperationResult, []Delta, error) {
	guest, err := p.findGuestChecked(tx, op.ID)
	if err != nil {
		return OperationResult{}, nil, err
	}
	data := op.Data
	applyGuestFields(guest, data)

	statusSet := data.Status != nil
	var deltas []Delta

	if statusSet {
		d, err := p.sync.ApplyStatusChange(tx, guest, *data.Status)
		if err != nil {
			return OperationResult{}, nil, err
		}
		deltas = append(deltas, d...)
	}
	if data.TableID.Set {
		if data.TableID.Value != nil {
			if err := p.recheckCapacity(tx, guest, *data.TableID.Value); err != nil {
				return OperationResult{}, nil, err
			}
		}
		d, err := p.sync.Assign(tx, guest, data.TableID.Value, statusSet)
		if err != nil {
			return OperationResult{}, nil, err
		}
		deltas = append(deltas, d...)
	}
	if !statusSet && !data.TableID.Set {
		if err := tx.SaveGuest(guest); err != nil {
			return OperationResult{}, nil, &PersistenceError{Err: err}
		}
		deltas = append(deltas, Delta{EntityType: EntityGuest, EntityID: guest.ID, Action: ActionUpdated, Data: guest})
	}
	return OperationResult{EntityType: EntityGuest, EntityID: guest.ID, Status: "updated", Data: guest}, deltas, nil
}

func (p *Processor) applyGuestDelete(tx store.Store, op GuestOperation) (OperationResult, []Delta, error) {
	guest, err := p.findGuestChecked(tx, op.ID)
	if err != nil {
		return OperationResult{}, nil, err
	}
	active, err := tx.HasActiveReservation(op.ID)
	if err != nil {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}
	if active {
		return OperationResult{}, nil, conflictf("guest %s has an active reservation", op.ID)
	}

	var deltas []Delta
	tables, err := tx.TablesHoldingGuest(guest.ID)
	if err != nil {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}
	for i := range tables {
		table := &tables[i]
		table.CurrentGuestID = nil
		if table.Status == models.TableStatusOccupied {
			table.Status = models.TableStatusAvailable
		}
		if err := tx.SaveTable(table); err != nil {
			return OperationResult{}, nil, &PersistenceError{Err: err}
		}
		deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: table.ID, Action: ActionUpdated, Data: table})
	}
	if err := tx.DeleteGuest(guest); err != nil {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}
	deltas = append(deltas, Delta{EntityType: EntityGuest, EntityID: guest.ID, Action: ActionDeleted})
	return OperationResult{EntityType: EntityGuest, EntityID: guest.ID, Status: "deleted"}, deltas, nil
}

func (p *Processor) applyTableCreate(tx store.Store, req BatchRequest, op TableOperation) (OperationResult, []Delta, error) {
	data := op.Data

	if existing, err := tx.FindTable(op.ID); err == nil {
		if !tableMatchesFields(existing, data) {
			return OperationResult{}, nil, conflictf("table %s already exists with different data", op.ID)
		}
		return OperationResult{EntityType: EntityTable, EntityID: op.ID, Status: "created", Data: existing}, nil, nil
	} else if !store.IsNotFound(err) {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}
	if other, err := tx.FindTableByNumber(*data.RestaurantID, *data.TableNumber); err == nil && other.ID != op.ID {
		return OperationResult{}, nil, conflictf("table number %q already in use", *data.TableNumber)
	} else if err != nil && !store.IsNotFound(err) {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}

	table := &models.Table{
		ID:           op.ID,
		RestaurantID: *data.RestaurantID,
		TableNumber:  *data.TableNumber,
		Capacity:     *data.Capacity,
		MinPartySize: 1,
		Shape:        "round",
		Status:       models.TableStatusAvailable,
		IsActive:     true,
	}
	applyTableFields(table, data)

	var deltas []Delta
	if data.CurrentGuestID.Set && data.CurrentGuestID.Value != nil {
		d, err := p.sync.SyncTableSide(tx, table, data.CurrentGuestID.Value)
		if err != nil {
			return OperationResult{}, nil, err
		}
		deltas = append(deltas, d...)
	}
	if err := tx.CreateTable(table); err != nil {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}
	deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: table.ID, Action: ActionCreated, Data: table})
	return OperationResult{EntityType: EntityTable, EntityID: table.ID, Status: "created", Data: table}, deltas, nil
}

func (p *Processor) applyTableUpdate(tx store.Store, op TableOperation) (OperationResult, []Delta, error) {
	table, err := p.findTableChecked(tx, op.ID)
	if err != nil {
		return OperationResult{}, nil, err
	}
	data := op.Data

	// Number re-check against the transaction state, before the rename
	// lands on the row.
	if data.TableNumber != nil && *data.TableNumber != table.TableNumber {
		if other, err := tx.FindTableByNumber(table.RestaurantID, *data.TableNumber); err == nil && other.ID != table.ID {
			return OperationResult{}, nil, conflictf("table number %q already in use", *data.TableNumber)
		} else if err != nil && !store.IsNotFound(err) {
			return OperationResult{}, nil, &PersistenceError{Err: err}
		}
	}
	applyTableFields(table, data)

	// Capacity re-check against the transaction state.
	if data.Capacity != nil && table.CurrentGuestID != nil && !data.CurrentGuestID.Set {
		guest, err := tx.FindGuest(*table.CurrentGuestID)
		if err == nil && guest.PartySize > *data.Capacity {
			return OperationResult{}, nil, conflictf("cannot reduce table capacity below current guest party size")
		} else if err != nil && !store.IsNotFound(err) {
			return OperationResult{}, nil, &PersistenceError{Err: err}
		}
	}

	var deltas []Delta
	switch {
	case data.CurrentGuestID.Set:
		d, err := p.sync.SyncTableSide(tx, table, data.CurrentGuestID.Value)
		if err != nil {
			return OperationResult{}, nil, err
		}
		deltas = append(deltas, d...)
	case data.Status != nil && *data.Status != models.TableStatusOccupied && table.CurrentGuestID != nil:
		// Status change away from occupied drops the guest reference.
		d, err := p.sync.SyncTableSide(tx, table, nil)
		if err != nil {
			return OperationResult{}, nil, err
		}
		table.Status = *data.Status
		deltas = append(deltas, d...)
	case data.Status != nil && *data.Status == models.TableStatusOccupied && table.CurrentGuestID == nil:
		return OperationResult{}, nil, validationf("occupied table requires current_guest_id")
	}

	if err := tx.SaveTable(table); err != nil {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}
	deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: table.ID, Action: ActionUpdated, Data: table})
	return OperationResult{EntityType: EntityTable, EntityID: table.ID, Status: "updated", Data: table}, deltas, nil
}

func (p *Processor) applyTableDelete(tx store.Store, op TableOperation) (OperationResult, []Delta, error) {
	table, err := p.findTableChecked(tx, op.ID)
	if err != nil {
		return OperationResult{}, nil, err
	}
	if table.Occupied() {
		return OperationResult{}, nil, conflictf("cannot delete table %s: currently occupied by guest %s",
			table.ID, *table.CurrentGuestID)
	}
	// Tables are soft-deleted so historical references stay resolvable.
	table.IsActive = false
	table.CurrentGuestID = nil
	if err := tx.SaveTable(table); err != nil {
		return OperationResult{}, nil, &PersistenceError{Err: err}
	}
	deltas := []Delta{{EntityType: EntityTable, EntityID: table.ID, Action: ActionDeleted}}
	return OperationResult{EntityType: EntityTable, EntityID: table.ID, Status: "deleted"}, deltas, nil
}

func (p *Processor) recheckCapacity(tx store.Store, guest *models.Guest, tableID string) error {
	table, err := p.findTableChecked(tx, tableID)
	if err != nil {
		return err
	}
	if guest.PartySize > table.Capacity {
		return conflictf("party size %d exceeds table %s capacity %d",
			guest.PartySize, table.ID, table.Capacity)
	}
	return nil
}

func (p *Processor) findGuestChecked(s store.Store, id string) (*models.Guest, error) {
	guest, err := s.FindGuest(id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound(EntityGuest, id)
		}
		return nil, &PersistenceError{Err: err}
	}
	return guest, nil
}

func (p *Processor) findTableChecked(s store.Store, id string) (*models.Table, error) {
	table, err := s.FindTable(id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound(EntityTable, id)
		}
		return nil, &PersistenceError{Err: err}
	}
	return table, nil
}

func validatePosition(x, y *float64) error {
	if x != nil && (*x < 0 || *x > 1) {
		return validationf("position_x must be within 0.0-1.0")
	}
	if y != nil && (*y < 0 || *y > 1) {
		return validationf("position_y must be within 0.0-1.0")
	}
	return nil
}

// applyGuestFields copies the plain fields onto the guest. Cross
// references and status transitions belong to the Synchronizer and are
// never touched here.
func applyGuestFields(guest *models.Guest, data *GuestFields) {
	if data.FirstName != nil {
		guest.FirstName = *data.FirstName
	}
	if data.LastName != nil {
		guest.LastName = *data.LastName
	}
	if data.Email != nil {
		guest.Email = *data.Email
	}
	if data.Phone != nil {
		guest.Phone = *data.Phone
	}
	if data.PartySize != nil {
		guest.PartySize = *data.PartySize
	}
	if data.DietaryRestrictions != nil {
		guest.DietaryRestrictions = data.DietaryRestrictions
	}
	if data.SpecialRequests != nil {
		guest.SpecialRequests = *data.SpecialRequests
	}
	if data.Notes != nil {
		guest.Notes = *data.Notes
	}
	if data.CheckInTime != nil {
		guest.CheckInTime = data.CheckInTime
	}
	if data.SeatedTime != nil {
		guest.SeatedTime = data.SeatedTime
	}
	if data.FinishedTime != nil {
		guest.FinishedTime = data.FinishedTime
	}
}

func applyTableFields(table *models.Table, data *TableFields) {
	if data.TableNumber != nil {
		table.TableNumber = *data.TableNumber
	}
	if data.Capacity != nil {
		table.Capacity = *data.Capacity
	}
	if data.MinPartySize != nil {
		table.MinPartySize = *data.MinPartySize
	}
	if data.MaxPartySize != nil {
		table.MaxPartySize = *data.MaxPartySize
	}
	if data.PositionX != nil {
		table.PositionX = *data.PositionX
	}
	if data.PositionY != nil {
		table.PositionY = *data.PositionY
	}
	if data.Shape != nil {
		table.Shape = *data.Shape
	}
	if data.Section != nil {
		table.Section = *data.Section
	}
	if data.Status != nil {
		table.Status = *data.Status
	}
	if data.Notes != nil {
		table.Notes = *data.Notes
	}
}

// guestMatchesFields reports whether the stored guest equals the fields a
// create replay carries. Only fields present in the payload count.
func guestMatchesFields(guest *models.Guest, data *GuestFields) bool {
	if data == nil {
		return false
	}
	if data.RestaurantID != nil && guest.RestaurantID != *data.RestaurantID {
		return false
	}
	if data.FirstName != nil && guest.FirstName != *data.FirstName {
		return false
	}
	if data.LastName != nil && guest.LastName != *data.LastName {
		return false
	}
	if data.Email != nil && guest.Email != *data.Email {
		return false
	}
	if data.Phone != nil && guest.Phone != *data.Phone {
		return false
	}
	if data.PartySize != nil && guest.PartySize != *data.PartySize {
		return false
	}
	if data.Status != nil && guest.Status != *data.Status {
		return false
	}
	if data.TableID.Set && !equalStringPtr(guest.TableID, data.TableID.Value) {
		return false
	}
	if data.Notes != nil && guest.Notes != *data.Notes {
		return false
	}
	return true
}

func tableMatchesFields(table *models.Table, data *TableFields) bool {
	if data == nil {
		return false
	}
	if data.RestaurantID != nil && table.RestaurantID != *data.RestaurantID {
		return false
	}
	if data.TableNumber != nil && table.TableNumber != *data.TableNumber {
		return false
	}
	if data.Capacity != nil && table.Capacity != *data.Capacity {
		return false
	}
	if data.PositionX != nil && table.PositionX != *data.PositionX {
		return false
	}
	if data.PositionY != nil && table.PositionY != *data.PositionY {
		return false
	}
	if data.Shape != nil && table.Shape != *data.Shape {
		return false
	}
	if data.Section != nil && table.Section != *data.Section {
		return false
	}
	if data.Status != nil && table.Status != *data.Status {
		return false
	}
	if data.CurrentGuestID.Set && !equalStringPtr(table.CurrentGuestID, data.CurrentGuestID.Value) {
		return false
	}
	return true
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
