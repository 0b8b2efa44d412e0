package floor

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/floorsync/models"
	"github.com/yeremiapane/floorsync/store"
)

// Synchronizer is the sole writer of the guest<->table cross references.
// It keeps the bidirectional invariant: a table holds a guest reference
// exactly when it is occupied, and no guest is referenced by more than
// one table. Every method runs inside the caller's storage transaction.
type Synchronizer struct {
	log *logrus.Logger
}

func NewSynchronizer(log *logrus.Logger) *Synchronizer {
	return &Synchronizer{log: log}
}

// Assign moves guest onto newTableID. A nil newTableID detaches the
// guest from every table still referencing it. The guest is mutated in
// memory and saved; the returned deltas end with the guest's own delta.
//
// If the target table already holds a different guest, that guest is
// demoted to Waitlist and detached first ("last assignment wins").
// keepStatus suppresses the automatic Seated transition when the caller
// set an explicit status in the same operation.
func (sy *Synchronizer) Assign(tx store.Store, guest *models.Guest, newTableID *string, keepStatus bool) ([]Delta, error) {
	now := time.Now().UTC()
	var deltas []Delta

	if newTableID == nil {
		// Defensive reconciliation: no table may keep claiming this guest.
		tables, err := tx.TablesHoldingGuest(guest.ID)
		if err != nil {
			return nil, &PersistenceError{Err: err}
		}
		for i := range tables {
			table := &tables[i]
			table.CurrentGuestID = nil
			if table.Status == models.TableStatusOccupied {
				table.Status = models.TableStatusAvailable
			}
			if err := tx.SaveTable(table); err != nil {
				return nil, &PersistenceError{Err: err}
			}
			deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: table.ID, Action: ActionUpdated, Data: table})
		}
		guest.TableID = nil
		if err := tx.SaveGuest(guest); err != nil {
			return nil, &PersistenceError{Err: err}
		}
		return append(deltas, Delta{EntityType: EntityGuest, EntityID: guest.ID, Action: ActionUpdated, Data: guest}), nil
	}

	target, err := tx.FindTable(*newTableID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound(EntityTable, *newTableID)
		}
		return nil, &PersistenceError{Err: err}
	}

	// Last assignment wins: whoever held the target goes back to the
	// waitlist. Flagged with the domain owners, see DESIGN.md.
	if target.CurrentGuestID != nil && *target.CurrentGuestID != guest.ID {
		other, err := tx.FindGuest(*target.CurrentGuestID)
		switch {
		case err == nil:
			other.TableID = nil
			other.Status = models.GuestStatusWaitlist
			if err := tx.SaveGuest(other); err != nil {
				return nil, &PersistenceError{Err: err}
			}
			sy.log.Infof("guest %s (%s) demoted to waitlist, table %s reassigned to %s", other.ID, other.FullName(), target.ID, guest.ID)
			deltas = append(deltas, Delta{EntityType: EntityGuest, EntityID: other.ID, Action: ActionUpdated, Data: other})
		case store.IsNotFound(err):
			// Dangling reference, just drop it.
		default:
			return nil, &PersistenceError{Err: err}
		}
	}

	// Vacate the guest's previous table. Only an occupied table flips
	// back to available; reserved/outOfService keep their status and
	// lose the reference only.
	if guest.TableID != nil && *guest.TableID != target.ID {
		prev, err := tx.FindTable(*guest.TableID)
		switch {
		case err == nil:
			if prev.CurrentGuestID != nil && *prev.CurrentGuestID == guest.ID {
				prev.CurrentGuestID = nil
				if prev.Status == models.TableStatusOccupied {
					prev.Status = models.TableStatusAvailable
				}
				if err := tx.SaveTable(prev); err != nil {
					return nil, &PersistenceError{Err: err}
				}
				deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: prev.ID, Action: ActionUpdated, Data: prev})
			}
		case store.IsNotFound(err):
			// Previous table vanished; nothing to vacate.
		default:
			return nil, &PersistenceError{Err: err}
		}
	}

	target.CurrentGuestID = &guest.ID
	target.Status = models.TableStatusOccupied
	if err := tx.SaveTable(target); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: target.ID, Action: ActionUpdated, Data: target})

	guest.TableID = &target.ID
	if !keepStatus && guest.Status != models.GuestStatusSeated {
		guest.Status = models.GuestStatusSeated
		guest.SeatedTime = &now
	}
	if err := tx.SaveGuest(guest); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return append(deltas, Delta{EntityType: EntityGuest, EntityID: guest.ID, Action: ActionUpdated, Data: guest}), nil
}

// ApplyStatusChange moves guest to newStatus. Leaving Seated or entering
// a terminal status vacates the guest's table in the same transaction;
// Finished stamps finished_time.
// The guest is mutated and saved; the returned deltas end with the
// guest's own delta.
func (sy *Synchronizer) ApplyStatusChange(tx store.Store, guest *models.Guest, newStatus string) ([]Delta, error) {
	if !models.ValidGuestStatus(newStatus) {
		return nil, validationf("invalid guest status %q", newStatus)
	}

	now := time.Now().UTC()
	oldStatus := guest.Status
	var deltas []Delta

	// Any transition out of Seated releases the table; a terminal status
	// releases it even when the guest never reached Seated.
	leavingSeated := oldStatus == models.GuestStatusSeated && newStatus != models.GuestStatusSeated
	if guest.TableID != nil && (leavingSeated || models.TerminalGuestStatus(newStatus)) {
		table, err := tx.FindTable(*guest.TableID)
		switch {
		case err == nil:
			table.CurrentGuestID = nil
			if table.Status == models.TableStatusOccupied {
				table.Status = models.TableStatusAvailable
			}
			if err := tx.SaveTable(table); err != nil {
				return nil, &PersistenceError{Err: err}
			}
			deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: table.ID, Action: ActionUpdated, Data: table})
		case store.IsNotFound(err):
			// Table already gone; clear the guest side anyway.
		default:
			return nil, &PersistenceError{Err: err}
		}
		guest.TableID = nil
	}

	guest.Status = newStatus
	if newStatus == models.GuestStatusFinished && guest.FinishedTime == nil {
		guest.FinishedTime = &now
	}
	if newStatus == models.GuestStatusSeated && guest.SeatedTime == nil {
		guest.SeatedTime = &now
	}
	if err := tx.SaveGuest(guest); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return append(deltas, Delta{EntityType: EntityGuest, EntityID: guest.ID, Action: ActionUpdated, Data: guest}), nil
}

// SyncTableSide applies a table-side guest reference change coming from
// a table update operation. It only touches tables: the pair
// {status, current_guest_id} stays consistent and any other table
// referencing the guest is vacated. guestID nil clears the reference.
func (sy *Synchronizer) SyncTableSide(tx store.Store, table *models.Table, guestID *string) ([]Delta, error) {
	var deltas []Delta

	if guestID == nil {
		table.CurrentGuestID = nil
		if table.Status == models.TableStatusOccupied {
			table.Status = models.TableStatusAvailable
		}
		return deltas, nil
	}

	if _, err := tx.FindGuest(*guestID); err != nil {
		if store.IsNotFound(err) {
			return nil, notFound(EntityGuest, *guestID)
		}
		return nil, &PersistenceError{Err: err}
	}

	// Single occupancy: no other table may keep referencing this guest.
	others, err := tx.TablesHoldingGuest(*guestID)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	for i := range others {
		other := &others[i]
		if other.ID == table.ID {
			continue
		}
		other.CurrentGuestID = nil
		if other.Status == models.TableStatusOccupied {
			other.Status = models.TableStatusAvailable
		}
		if err := tx.SaveTable(other); err != nil {
			return nil, &PersistenceError{Err: err}
		}
		deltas = append(deltas, Delta{EntityType: EntityTable, EntityID: other.ID, Action: ActionUpdated, Data: other})
	}

	table.CurrentGuestID = guestID
	table.Status = models.TableStatusOccupied
	return deltas, nil
}
