package floor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/floorsync/models"
	"github.com/yeremiapane/floorsync/store"
)

func newTestProcessor(t *testing.T) (*Processor, store.Store) {
	t.Helper()
	st := newTestStore(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewProcessor(st, NewSynchronizer(log), log), st
}

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func optSet(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

func guestCreateOp(id, firstName string, partySize int) GuestOperation {
	rid := testRestaurantID
	return GuestOperation{
		ID:        id,
		Operation: OpCreate,
		Data: &GuestFields{
			RestaurantID: &rid,
			FirstName:    &firstName,
			PartySize:    intPtr(partySize),
		},
	}
}

func tableCreateOp(id, number string, capacity int) TableOperation {
	rid := testRestaurantID
	return TableOperation{
		ID:        id,
		Operation: OpCreate,
		Data: &TableFields{
			RestaurantID: &rid,
			TableNumber:  &number,
			Capacity:     intPtr(capacity),
		},
	}
}

func TestExecuteBatchCreateGuest(t *testing.T) {
	p, st := newTestProcessor(t)

	resp := p.ExecuteBatch(BatchRequest{
		TransactionID: "tx-1",
		RestaurantID:  testRestaurantID,
		Guests:        []GuestOperation{guestCreateOp("g1", "Ada", 2)},
	})

	require.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "created", resp.Results[0].Status)

	guest, err := st.FindGuest("g1")
	require.NoError(t, err)
	assert.Equal(t, models.GuestStatusWaitlist, guest.Status)
	assert.NotNil(t, guest.CheckInTime)
	assert.Nil(t, guest.TableID)

	require.Len(t, resp.Deltas, 1)
	assert.Equal(t, ActionCreated, resp.Deltas[0].Action)
}

func TestExecuteBatchSeatGuestOnCreate(t *testing.T) {
	p, st := newTestProcessor(t)
	seedTable(t, st, "t1", "A1", 4, models.TableStatusAvailable, nil)

	op := guestCreateOp("g1", "Ada", 2)
	op.Data.TableID = optSet("t1")

	resp := p.ExecuteBatch(BatchRequest{
		TransactionID: "tx-1",
		RestaurantID:  testRestaurantID,
		Guests:        []GuestOperation{op},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)

	guest, err := st.FindGuest("g1")
	require.NoError(t, err)
	assert.Equal(t, models.GuestStatusSeated, guest.Status)
	require.NotNil(t, guest.TableID)
	assert.Equal(t, "t1", *guest.TableID)

	table, err := st.FindTable("t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	require.NotNil(t, table.CurrentGuestID)
	assert.Equal(t, "g1", *table.CurrentGuestID)

	// One delta per entity after dedupe: the guest keeps its created
	// action even though assignment updated it again.
	require.Len(t, resp.Deltas, 2)
	byEntity := map[string]Delta{}
	for _, d := range resp.Deltas {
		byEntity[d.EntityType] = d
	}
	assert.Equal(t, ActionCreated, byEntity[EntityGuest].Action)
	assert.Equal(t, ActionUpdated, byEntity[EntityTable].Action)
}

func TestExecuteBatchValidationRejectsWholeBatch(t *testing.T) {
	p, st := newTestProcessor(t)

	rid := testRestaurantID
	firstName := "Ada"
	resp := p.ExecuteBatch(BatchRequest{
		TransactionID: "tx-1",
		RestaurantID:  testRestaurantID,
		Guests: []GuestOperation{
			guestCreateOp("g1", "Ada", 2),
			{
				ID:        "g2",
				Operation: OpCreate,
				// party_size missing
				Data: &GuestFields{RestaurantID: &rid, FirstName: &firstName},
			},
		},
	})

	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsValidation(resp.Errs[0]))

	// The valid sibling was not applied either.
	_, err := st.FindGuest("g1")
	assert.True(t, store.IsNotFound(err))
}

func TestExecuteBatchCapacityConflict(t *testing.T) {
	p, st := newTestProcessor(t)
	seedTable(t, st, "t1", "A1", 2, models.TableStatusAvailable, nil)

	op := guestCreateOp("g1", "Ada", 6)
	op.Data.TableID = optSet("t1")

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests:       []GuestOperation{op},
	})

	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsConflict(resp.Errs[0]))
}

func TestExecuteBatchReplayIsIdempotent(t *testing.T) {
	p, st := newTestProcessor(t)

	req := BatchRequest{
		TransactionID: "tx-1",
		RestaurantID:  testRestaurantID,
		Guests:        []GuestOperation{guestCreateOp("g1", "Ada", 2)},
	}

	first := p.ExecuteBatch(req)
	require.True(t, first.Success)

	second := p.ExecuteBatch(req)
	require.True(t, second.Success)
	require.Len(t, second.Results, 1)
	assert.Equal(t, "created", second.Results[0].Status)

	guests, err := st.GuestsByRestaurant(testRestaurantID)
	require.NoError(t, err)
	assert.Len(t, guests, 1)
}

func TestExecuteBatchReplayWithDifferentDataConflicts(t *testing.T) {
	p, _ := newTestProcessor(t)

	require.True(t, p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests:       []GuestOperation{guestCreateOp("g1", "Ada", 2)},
	}).Success)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests:       []GuestOperation{guestCreateOp("g1", "Grace", 2)},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsConflict(resp.Errs[0]))
}

func TestExecuteBatchLastAssignmentWins(t *testing.T) {
	p, st := newTestProcessor(t)
	seedGuest(t, st, "g1", models.GuestStatusSeated, strPtr("t1"))
	seedGuest(t, st, "g2", models.GuestStatusArrived, nil)
	seedTable(t, st, "t1", "A1", 4, models.TableStatusOccupied, strPtr("g1"))

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests: []GuestOperation{{
			ID:        "g2",
			Operation: OpUpdate,
			Data:      &GuestFields{TableID: optSet("t1")},
		}},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)

	displaced, err := st.FindGuest("g1")
	require.NoError(t, err)
	assert.Equal(t, models.GuestStatusWaitlist, displaced.Status)
	assert.Nil(t, displaced.TableID)

	winner, err := st.FindGuest("g2")
	require.NoError(t, err)
	assert.Equal(t, models.GuestStatusSeated, winner.Status)

	table, err := st.FindTable("t1")
	require.NoError(t, err)
	require.NotNil(t, table.CurrentGuestID)
	assert.Equal(t, "g2", *table.CurrentGuestID)
}

func TestExecuteBatchFinishClearsTable(t *testing.T) {
	p, st := newTestProcessor(t)
	status := models.GuestStatusFinished

	seedGuest(t, st, "g1", models.GuestStatusSeated, strPtr("t1"))
	seedTable(t, st, "t1", "A1", 4, models.TableStatusOccupied, strPtr("g1"))

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests: []GuestOperation{{
			ID:        "g1",
			Operation: OpUpdate,
			Data:      &GuestFields{Status: &status},
		}},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)

	guest, err := st.FindGuest("g1")
	require.NoError(t, err)
	assert.Equal(t, models.GuestStatusFinished, guest.Status)
	assert.Nil(t, guest.TableID)
	assert.NotNil(t, guest.FinishedTime)

	table, err := st.FindTable("t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
	assert.Nil(t, table.CurrentGuestID)

	// Both sides of the clearing fan out.
	require.Len(t, resp.Deltas, 2)
}

func TestExecuteBatchTableSideAssignEmitsSingleDelta(t *testing.T) {
	p, st := newTestProcessor(t)
	seedGuest(t, st, "g1", models.GuestStatusArrived, nil)
	seedTable(t, st, "t1", "A1", 4, models.TableStatusAvailable, nil)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables: []TableOperation{{
			ID:        "t1",
			Operation: OpUpdate,
			Data:      &TableFields{CurrentGuestID: optSet("g1")},
		}},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)

	table, err := st.FindTable("t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	require.NotNil(t, table.CurrentGuestID)
	assert.Equal(t, "g1", *table.CurrentGuestID)

	// Nothing else changed, so subscribers see exactly one delta.
	require.Len(t, resp.Deltas, 1)
	assert.Equal(t, EntityTable, resp.Deltas[0].EntityType)
	assert.Equal(t, "t1", resp.Deltas[0].EntityID)
}

func TestExecuteBatchTableStatusChangeDropsGuestReference(t *testing.T) {
	p, st := newTestProcessor(t)
	status := models.TableStatusAvailable

	seedGuest(t, st, "g1", models.GuestStatusSeated, strPtr("t1"))
	seedTable(t, st, "t1", "A1", 4, models.TableStatusOccupied, strPtr("g1"))

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables: []TableOperation{{
			ID:        "t1",
			Operation: OpUpdate,
			Data:      &TableFields{Status: &status},
		}},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)

	table, err := st.FindTable("t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
	assert.Nil(t, table.CurrentGuestID)
}

func TestExecuteBatchOccupiedWithoutGuestRejected(t *testing.T) {
	p, st := newTestProcessor(t)
	status := models.TableStatusOccupied
	seedTable(t, st, "t1", "A1", 4, models.TableStatusAvailable, nil)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables: []TableOperation{{
			ID:        "t1",
			Operation: OpUpdate,
			Data:      &TableFields{Status: &status},
		}},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsValidation(resp.Errs[0]))
}

func TestExecuteBatchDeleteOccupiedTableConflicts(t *testing.T) {
	p, st := newTestProcessor(t)
	seedGuest(t, st, "g1", models.GuestStatusSeated, strPtr("t1"))
	seedTable(t, st, "t1", "A1", 4, models.TableStatusOccupied, strPtr("g1"))

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables:       []TableOperation{{ID: "t1", Operation: OpDelete}},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsConflict(resp.Errs[0]))
}

func TestExecuteBatchSoftDeletesTable(t *testing.T) {
	p, st := newTestProcessor(t)
	seedTable(t, st, "t1", "A1", 4, models.TableStatusAvailable, nil)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables:       []TableOperation{{ID: "t1", Operation: OpDelete}},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)

	_, err := st.FindTable("t1")
	assert.True(t, store.IsNotFound(err))

	// The row survives with is_active false so delta sync can report
	// the deletion.
	tables, err := st.TablesUpdatedSince(testRestaurantID, time.Time{})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.False(t, tables[0].IsActive)
}

func TestExecuteBatchDeleteGuestWithReservationConflicts(t *testing.T) {
	st, db := newTestStoreDB(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	p := NewProcessor(st, NewSynchronizer(log), log)

	seedGuest(t, st, "g1", models.GuestStatusWaitlist, nil)
	require.NoError(t, db.Create(&models.Reservation{
		ID:              "r1",
		RestaurantID:    testRestaurantID,
		GuestID:         "g1",
		PartySize:       2,
		ReservationTime: time.Now().Add(time.Hour),
		Status:          models.ReservationStatusConfirmed,
	}).Error)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests:       []GuestOperation{{ID: "g1", Operation: OpDelete}},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsConflict(resp.Errs[0]))
}

func TestExecuteBatchDeleteGuestVacatesTable(t *testing.T) {
	p, st := newTestProcessor(t)
	seedGuest(t, st, "g1", models.GuestStatusSeated, strPtr("t1"))
	seedTable(t, st, "t1", "A1", 4, models.TableStatusOccupied, strPtr("g1"))

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests:       []GuestOperation{{ID: "g1", Operation: OpDelete}},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)

	_, err := st.FindGuest("g1")
	assert.True(t, store.IsNotFound(err))

	table, err := st.FindTable("t1")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
	assert.Nil(t, table.CurrentGuestID)
}

func TestExecuteBatchUnknownOperation(t *testing.T) {
	p, _ := newTestProcessor(t)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Guests:       []GuestOperation{{ID: "g1", Operation: "upsert"}},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsValidation(resp.Errs[0]))
}

func TestExecuteBatchPositionOutOfRange(t *testing.T) {
	p, _ := newTestProcessor(t)

	op := tableCreateOp("t1", "A1", 4)
	op.Data.PositionX = floatPtr(1.5)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables:       []TableOperation{op},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsValidation(resp.Errs[0]))
}

func TestExecuteBatchDuplicateTableNumberConflicts(t *testing.T) {
	p, st := newTestProcessor(t)
	seedTable(t, st, "t1", "A1", 4, models.TableStatusAvailable, nil)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables:       []TableOperation{tableCreateOp("t2", "A1", 6)},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsConflict(resp.Errs[0]))
}

func TestExecuteBatchRenameToTakenTableNumberConflicts(t *testing.T) {
	p, st := newTestProcessor(t)
	seedTable(t, st, "t1", "A1", 4, models.TableStatusAvailable, nil)
	seedTable(t, st, "t2", "A2", 4, models.TableStatusAvailable, nil)

	resp := p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables: []TableOperation{{
			ID:        "t2",
			Operation: OpUpdate,
			Data:      &TableFields{TableNumber: strPtr("A1")},
		}},
	})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errs)
	assert.True(t, IsConflict(resp.Errs[0]))

	table, err := st.FindTable("t2")
	require.NoError(t, err)
	assert.Equal(t, "A2", table.TableNumber)

	// Keeping the current number is not a collision.
	resp = p.ExecuteBatch(BatchRequest{
		RestaurantID: testRestaurantID,
		Tables: []TableOperation{{
			ID:        "t2",
			Operation: OpUpdate,
			Data:      &TableFields{TableNumber: strPtr("A2"), Capacity: intPtr(6)},
		}},
	})
	require.True(t, resp.Success, "errors: %v", resp.Errors)
}

// sweepFloorInvariants checks the committed state: a table holds a
// guest reference exactly when occupied, no guest is held by two
// tables, and both sides of every reference agree.
func sweepFloorInvariants(t *testing.T, st store.Store) {
	t.Helper()

	tables, err := st.TablesByRestaurant(testRestaurantID)
	require.NoError(t, err)
	guests, err := st.GuestsByRestaurant(testRestaurantID)
	require.NoError(t, err)

	holder := map[string]string{}
	for _, tb := range tables {
		if tb.Status == models.TableStatusOccupied {
			require.NotNil(t, tb.CurrentGuestID, "occupied table %s has no guest", tb.ID)
		} else {
			require.Nil(t, tb.CurrentGuestID, "table %s holds a guest while %s", tb.ID, tb.Status)
		}
		if tb.CurrentGuestID != nil {
			_, dup := holder[*tb.CurrentGuestID]
			require.False(t, dup, "guest %s held by two tables", *tb.CurrentGuestID)
			holder[*tb.CurrentGuestID] = tb.ID
		}
	}
	for _, g := range guests {
		if g.TableID != nil {
			require.Equal(t, holder[g.ID], *g.TableID, "guest %s and table disagree", g.ID)
		} else {
			_, held := holder[g.ID]
			require.False(t, held, "guest %s detached but still referenced", g.ID)
		}
	}
}

func TestExecuteBatchChurnKeepsInvariants(t *testing.T) {
	p, st := newTestProcessor(t)

	guestIDs := []string{"g1", "g2", "g3", "g4", "g5"}
	tableIDs := []string{"t1", "t2", "t3"}
	for _, id := range guestIDs {
		seedGuest(t, st, id, models.GuestStatusWaitlist, nil)
	}
	for i, id := range tableIDs {
		seedTable(t, st, id, fmt.Sprintf("A%d", i+1), 8, models.TableStatusAvailable, nil)
	}

	for i := 0; i < 50; i++ {
		guestID := guestIDs[i%len(guestIDs)]
		tableID := tableIDs[i%len(tableIDs)]

		var data GuestFields
		if i%7 == 6 {
			status := models.GuestStatusFinished
			data.Status = &status
		} else {
			data.TableID = optSet(tableID)
		}
		resp := p.ExecuteBatch(BatchRequest{
			RestaurantID: testRestaurantID,
			Guests:       []GuestOperation{{ID: guestID, Operation: OpUpdate, Data: &data}},
		})
		require.True(t, resp.Success, "iteration %d errors: %v", i, resp.Errors)
	}

	sweepFloorInvariants(t, st)
}

func TestExecuteBatchConcurrentChurnKeepsInvariants(t *testing.T) {
	p, st := newTestProcessor(t)

	guestIDs := []string{"g1", "g2", "g3", "g4", "g5"}
	tableIDs := []string{"t1", "t2", "t3"}
	for _, id := range guestIDs {
		seedGuest(t, st, id, models.GuestStatusWaitlist, nil)
	}
	for i, id := range tableIDs {
		seedTable(t, st, id, fmt.Sprintf("A%d", i+1), 8, models.TableStatusAvailable, nil)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				guestID := guestIDs[(w+i)%len(guestIDs)]

				var data GuestFields
				if (w+i)%5 == 4 {
					status := models.GuestStatusFinished
					data.Status = &status
				} else {
					data.TableID = optSet(tableIDs[(w*3+i)%len(tableIDs)])
				}
				// Overlapping batches may lose the storage race and roll
				// back; whatever commits must keep the invariants.
				p.ExecuteBatch(BatchRequest{
					RestaurantID: testRestaurantID,
					Guests:       []GuestOperation{{ID: guestID, Operation: OpUpdate, Data: &data}},
				})
			}
		}(w)
	}
	wg.Wait()

	sweepFloorInvariants(t, st)
}

func TestExecuteBatchContendedTableEndsWithOneGuest(t *testing.T) {
	p, st := newTestProcessor(t)
	seedTable(t, st, "t1", "A1", 8, models.TableStatusAvailable, nil)

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("g%d", i)
		seedGuest(t, st, id, models.GuestStatusWaitlist, nil)
		resp := p.ExecuteBatch(BatchRequest{
			RestaurantID: testRestaurantID,
			Guests: []GuestOperation{{
				ID:        id,
				Operation: OpUpdate,
				Data:      &GuestFields{TableID: optSet("t1")},
			}},
		})
		require.True(t, resp.Success, "iteration %d errors: %v", i, resp.Errors)
	}

	table, err := st.FindTable("t1")
	require.NoError(t, err)
	require.NotNil(t, table.CurrentGuestID)
	assert.Equal(t, "g49", *table.CurrentGuestID)

	guests, err := st.GuestsByRestaurant(testRestaurantID)
	require.NoError(t, err)
	seated := 0
	for _, g := range guests {
		if g.TableID != nil {
			seated++
			assert.Equal(t, "g49", g.ID)
		} else {
			assert.Equal(t, models.GuestStatusWaitlist, g.Status)
		}
	}
	assert.Equal(t, 1, seated)
}

func TestExecuteBatchWritesActivityLog(t *testing.T) {
	st, db := newTestStoreDB(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	p := NewProcessor(st, NewSynchronizer(log), log)

	resp := p.ExecuteBatch(BatchRequest{
		TransactionID: "tx-audit",
		RestaurantID:  testRestaurantID,
		Guests:        []GuestOperation{guestCreateOp("g1", "Ada", 2)},
	})
	require.True(t, resp.Success)

	var entries []models.ActivityLog
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "created", entries[0].Action)
	assert.Equal(t, "g1", entries[0].EntityID)
	assert.Equal(t, "tx-audit", entries[0].Detail)
}

func TestDedupeDeltas(t *testing.T) {
	deltas := dedupeDeltas([]Delta{
		{EntityType: EntityGuest, EntityID: "g1", Action: ActionCreated, Data: 1},
		{EntityType: EntityTable, EntityID: "t1", Action: ActionUpdated, Data: 2},
		{EntityType: EntityGuest, EntityID: "g1", Action: ActionUpdated, Data: 3},
	})

	require.Len(t, deltas, 2)
	assert.Equal(t, ActionCreated, deltas[0].Action, "created survives a later update")
	assert.Equal(t, 3, deltas[0].Data, "last state wins")
	assert.Equal(t, "t1", deltas[1].EntityID)
}
