package inventory_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Base de datos en memoria con transacciones serializadas
// ──────────────────────────────────────────────────────────────────────────────

type memState struct {
	products  map[string]entity.Product
	units     map[string]entity.Unit
	movements []entity.Movement
}

func (s memState) clone() memState {
	out := memState{
		products:  make(map[string]entity.Product, len(s.products)),
		units:     make(map[string]entity.Unit, len(s.units)),
		movements: append([]entity.Movement(nil), s.movements...),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.units {
		out.units[k] = v
	}
	return out
}

// memDB implementa inventory.TxRunner: una tx a la vez, rollback restaurando el snapshot.
type memDB struct {
	mu    sync.Mutex
	st    memState
	snap  *memState
	users map[string]*entity.User

	// beforeCAS se ejecuta dentro de TrySetUnitStatus antes de comparar el estado.
	beforeCAS func(db *memDB, change entity.UnitStatusChange)
	// onAppend puede fallar la escritura en el libro.
	onAppend func(m *entity.Movement) error
}

var _ inventory.TxRunner = (*memDB)(nil)

func newMemDB() *memDB {
	return &memDB{
		st:    memState{products: map[string]entity.Product{}, units: map[string]entity.Unit{}},
		users: map[string]*entity.User{},
	}
}

func (db *memDB) Run(ctx context.Context, fn func(
	productRepo repository.ProductStockRepository,
	unitStore repository.UnitStore,
	ledger repository.MovementLedger,
) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := db.st.clone()
	db.snap = &snap
	defer func() { db.snap = nil }()
	if err := fn(memProducts{db}, memUnits{db}, memLedger{db}); err != nil {
		db.st = *db.snap
		return err
	}
	return nil
}

// committed aplica f al estado actual y al snapshot: simula otra tx ya confirmada.
func (db *memDB) committed(f func(st *memState)) {
	f(&db.st)
	if db.snap != nil {
		f(db.snap)
	}
}

// state devuelve una copia del estado (fuera de una tx).
func (db *memDB) state() memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.clone()
}

func (db *memDB) GetByID(_ context.Context, id string) (*entity.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type memProducts struct{ db *memDB }

func (r memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.db.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memProducts) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r memProducts) AdjustQuantity(_ context.Context, id string, delta int) (int, error) {
	p, ok := r.db.st.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if p.Quantity+delta < 0 {
		return 0, domain.ErrInsufficientStock
	}
	p.Quantity += delta
	r.db.st.products[id] = p
	return p.Quantity, nil
}

func (r memProducts) SetQuantity(_ context.Context, id string, quantity int) error {
	p, ok := r.db.st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Quantity = quantity
	r.db.st.products[id] = p
	return nil
}

func (r memProducts) UpdateStatus(_ context.Context, id, status string) error {
	p, ok := r.db.st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	r.db.st.products[id] = p
	return nil
}

type memUnits struct{ db *memDB }

func (s memUnits) Create(_ context.Context, unit *entity.Unit) error {
	for _, u := range s.db.st.units {
		if u.Code == unit.Code {
			return domain.ErrDuplicate
		}
	}
	s.db.st.units[unit.ID] = *unit
	return nil
}

func (s memUnits) GetByCode(_ context.Context, code string) (*entity.Unit, error) {
	for _, u := range s.db.st.units {
		if u.Code == code {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memUnits) CountByProduct(_ context.Context, productID string) (int, error) {
	n := 0
	for _, u := range s.db.st.units {
		if u.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (s memUnits) CountByStatus(_ context.Context, productID string, status entity.UnitStatus) (int, error) {
	n := 0
	for _, u := range s.db.st.units {
		if u.ProductID == productID && u.Status == status {
			n++
		}
	}
	return n, nil
}

func (s memUnits) FindOldestInStock(_ context.Context, productID string) (*entity.Unit, error) {
	var candidates []entity.Unit
	for _, u := range s.db.st.units {
		if u.ProductID == productID && u.Status == entity.UnitStatusInStock {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortFIFO(candidates)
	return &candidates[0], nil
}

func (s memUnits) TrySetUnitStatus(_ context.Context, change entity.UnitStatusChange) (bool, error) {
	if s.db.beforeCAS != nil {
		s.db.beforeCAS(s.db, change)
	}
	u, ok := s.db.st.units[change.UnitID]
	if !ok || u.Status != change.From {
		return false, nil
	}
	u.Status = change.To
	u.UpdatedAt = change.ChangedAt
	if a := change.Assignment; a != nil {
		at := a.AcquiredAt
		u.AcquiredAt = &at
		u.AcquiredByUserID = a.AcquiredByUserID
		u.AssignedToUserID = a.AssignedToUserID
		u.AcquiredReason = a.Reason
	} else {
		u.AcquiredAt = nil
		u.AcquiredByUserID = ""
		u.AssignedToUserID = ""
		u.AcquiredReason = ""
	}
	s.db.st.units[u.ID] = u
	return true, nil
}

type memLedger struct{ db *memDB }

func (l memLedger) Append(_ context.Context, m *entity.Movement) error {
	if l.db.onAppend != nil {
		if err := l.db.onAppend(m); err != nil {
			return err
		}
	}
	l.db.st.movements = append(l.db.st.movements, *m)
	return nil
}

func (l memLedger) RequestFulfilled(_ context.Context, requestID string) (bool, error) {
	for _, m := range l.db.st.movements {
		if m.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func (l memLedger) StockBalance(_ context.Context, productID string) (int, error) {
	n := 0
	for _, m := range l.db.st.movements {
		if m.ProductID == productID {
			n += m.StockDelta
		}
	}
	return n, nil
}

func sortFIFO(units []entity.Unit) {
	sort.Slice(units, func(i, j int) bool {
		if !units[i].CreatedAt.Equal(units[j].CreatedAt) {
			return units[i].CreatedAt.Before(units[j].CreatedAt)
		}
		return units[i].ID < units[j].ID
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Datos de prueba
// ──────────────────────────────────────────────────────────────────────────────

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func (db *memDB) addUser(status string) string {
	id := uuid.New().String()
	db.users[id] = &entity.User{ID: id, Email: id + "@test.local", Name: "Usuario", Role: entity.RoleVendedor, Status: status}
	return id
}

func (db *memDB) addProduct(sku string) string {
	id := uuid.New().String()
	db.st.products[id] = entity.Product{
		ID: id, SKU: sku, Name: sku, Status: entity.ProductStatusStockOut,
		CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	return id
}

// addBulk deja el producto con qty a granel y su movimiento IN.
func (db *memDB) addBulk(productID string, qty int) {
	p := db.st.products[productID]
	p.Quantity += qty
	p.Status = invdomain.StockStatusFor(p.Quantity)
	db.st.products[productID] = p
	db.st.movements = append(db.st.movements, entity.Movement{
		ID: uuid.New().String(), Type: entity.MovementTypeIN, Quantity: qty, StockDelta: qty,
		ProductID: productID, CreatedAt: baseTime,
	})
}

// addUnit crea una unidad en el estado dado con un historial de libro coherente.
func (db *memDB) addUnit(productID string, status entity.UnitStatus, createdAt time.Time) entity.Unit {
	p := db.st.products[productID]
	u := entity.Unit{
		ID: uuid.New().String(), Code: fmt.Sprintf("%s-%d", p.SKU, len(db.st.units)+1),
		ProductID: productID, Status: status, CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	db.st.movements = append(db.st.movements, entity.Movement{
		ID: uuid.New().String(), Type: entity.MovementTypeIN, Quantity: 1, StockDelta: 1,
		ProductID: productID, UnitID: u.ID, CreatedAt: createdAt,
	})
	if status == entity.UnitStatusAcquired {
		at := createdAt
		u.AcquiredAt = &at
		u.AssignedToUserID = "holder-" + u.ID[:8]
		u.AcquiredByUserID = u.AssignedToUserID
	}
	if status != entity.UnitStatusInStock {
		movType := map[entity.UnitStatus]entity.MovementType{
			entity.UnitStatusAcquired: entity.MovementTypeOUT,
			entity.UnitStatusInRepair: entity.MovementTypeREPAIROUT,
			entity.UnitStatusScrapped: entity.MovementTypeSCRAP,
			entity.UnitStatusLost:     entity.MovementTypeLOST,
		}[status]
		db.st.movements = append(db.st.movements, entity.Movement{
			ID: uuid.New().String(), Type: movType, Quantity: 1, StockDelta: -1,
			ProductID: productID, UnitID: u.ID, AssignedToUserID: u.AssignedToUserID, CreatedAt: createdAt,
		})
	} else {
		p.Quantity++
	}
	p.Status = invdomain.StockStatusFor(p.Quantity)
	db.st.products[productID] = p
	db.st.units[u.ID] = u
	return u
}

// simulateConcurrentAllocation aplica, como tx ya confirmada, la asignación de la unidad a otro consumidor.
func simulateConcurrentAllocation(db *memDB, unitID string) {
	db.committed(func(st *memState) {
		u := st.units[unitID]
		if u.Status != entity.UnitStatusInStock {
			return
		}
		at := baseTime
		u.Status = entity.UnitStatusAcquired
		u.AcquiredAt = &at
		u.AssignedToUserID = "otro-consumidor"
		u.AcquiredByUserID = "otro-consumidor"
		st.units[unitID] = u
		p := st.products[u.ProductID]
		p.Quantity--
		p.Status = invdomain.StockStatusFor(p.Quantity)
		st.products[u.ProductID] = p
		st.movements = append(st.movements, entity.Movement{
			ID: uuid.New().String(), Type: entity.MovementTypeOUT, Quantity: 1, StockDelta: -1,
			ProductID: u.ProductID, UnitID: u.ID, AssignedToUserID: "otro-consumidor", CreatedAt: baseTime,
		})
	})
}

func newCoordinator(db *memDB, retries int) *inventory.AllocationCoordinator {
	return inventory.NewAllocationCoordinator(db, db, nil, retries)
}

// assertInvariants verifica conservación, estado derivado, asignación y libro completo.
func assertInvariants(t *testing.T, db *memDB) {
	t.Helper()
	st := db.state()
	for id, p := range st.products {
		balance := 0
		for _, m := range st.movements {
			if m.ProductID == id {
				balance += m.StockDelta
				assert.GreaterOrEqual(t, m.Quantity, 1, "movimiento con cantidad < 1")
			}
		}
		assert.Equal(t, balance, p.Quantity, "quantity != suma del libro para %s", p.SKU)
		assert.GreaterOrEqual(t, p.Quantity, 0)
		assert.Equal(t, invdomain.StockStatusFor(p.Quantity), p.Status, "estado derivado de %s", p.SKU)

		tracked, inStock := 0, 0
		for _, u := range st.units {
			if u.ProductID != id {
				continue
			}
			tracked++
			if u.Status == entity.UnitStatusInStock {
				inStock++
			}
		}
		if tracked > 0 {
			assert.Equal(t, inStock, p.Quantity, "quantity != unidades IN_STOCK para %s", p.SKU)
		}
	}
	for _, u := range st.units {
		if u.Status == entity.UnitStatusAcquired {
			assert.NotEmpty(t, u.AssignedToUserID)
			assert.NotNil(t, u.AcquiredAt)
		} else {
			assert.Empty(t, u.AssignedToUserID, "unidad %s en %s con asignación", u.Code, u.Status)
			assert.Nil(t, u.AcquiredAt)
		}
		assert.Equal(t, expectedUnitStatus(st.movements, u.ID), u.Status, "historial de %s", u.Code)
	}
}

// expectedUnitStatus reconstruye el estado de una unidad a partir de su último movimiento.
func expectedUnitStatus(movements []entity.Movement, unitID string) entity.UnitStatus {
	status := entity.UnitStatus("")
	for _, m := range movements {
		if m.UnitID != unitID {
			continue
		}
		switch m.Type {
		case entity.MovementTypeIN, entity.MovementTypeRETURN, entity.MovementTypeREPAIRIN:
			status = entity.UnitStatusInStock
		case entity.MovementTypeOUT:
			status = entity.UnitStatusAcquired
		case entity.MovementTypeREPAIROUT:
			status = entity.UnitStatusInRepair
		case entity.MovementTypeSCRAP:
			status = entity.UnitStatusScrapped
		case entity.MovementTypeLOST:
			status = entity.UnitStatusLost
		}
	}
	return status
}

func unitByID(t *testing.T, db *memDB, id string) entity.Unit {
	t.Helper()
	u, ok := db.state().units[id]
	require.True(t, ok)
	return u
}

func productByID(t *testing.T, db *memDB, id string) entity.Product {
	t.Helper()
	p, ok := db.state().products[id]
	require.True(t, ok)
	return p
}
