package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"clinicpos/m/domain"
	"clinicpos/m/internal/store"
	"clinicpos/m/internal/store/memory"
)

const ttl = 30 * time.Second

type countingStore struct {
	*memory.Store
	reads  int
	onRead func()
}

func (s *countingStore) Medicine(ctx context.Context, id int64) (domain.Medicine, error) {
	s.reads++
	if err := ctx.Err(); err != nil {
		return domain.Medicine{}, err
	}
	m, err := s.Store.Medicine(ctx, id)
	if s.onRead != nil {
		s.onRead()
	}
	return m, err
}

func newStore(t *testing.T) (*countingStore, domain.Medicine) {
	t.Helper()
	st := &countingStore{Store: memory.New()}
	m := domain.Medicine{Name: "Paracetamol", Quantity: 5, TabletsPerStrip: 10, SellingPrice: 10000}
	if err := st.CreateMedicine(context.Background(), &m); err != nil {
		t.Fatal(err)
	}
	return st, m
}

func TestMedicineHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, m := newStore(t)
	c := NewCatalog(st, db, ttl)

	payload, _ := json.Marshal(m)
	mock.ExpectGet(medicineKey(m.ID)).SetVal(string(payload))

	got, err := c.Medicine(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != m.Name || got.SellingPrice != m.SellingPrice || got.TabletsPerStrip != 10 {
		t.Errorf("medicine = %+v", got)
	}
	if st.reads != 0 {
		t.Errorf("store read %d times on a hit", st.reads)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMedicineMissPopulates(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, m := newStore(t)
	c := NewCatalog(st, db, ttl)

	payload, _ := json.Marshal(m)
	mock.ExpectGet(medicineKey(m.ID)).RedisNil()
	mock.ExpectSet(medicineKey(m.ID), payload, ttl).SetVal("OK")

	got, err := c.Medicine(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != 5 || st.reads != 1 {
		t.Errorf("medicine = %+v, reads = %d", got, st.reads)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMedicineRedisDown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, m := newStore(t)
	c := NewCatalog(st, db, ttl)

	payload, _ := json.Marshal(m)
	mock.ExpectGet(medicineKey(m.ID)).SetErr(errors.New("connection refused"))
	mock.ExpectSet(medicineKey(m.ID), payload, ttl).SetErr(errors.New("connection refused"))

	got, err := c.Medicine(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("redis failure leaked: %v", err)
	}
	if got.ID != m.ID {
		t.Errorf("medicine = %+v", got)
	}
}

func TestMedicineNotFoundIsNotCached(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, _ := newStore(t)
	c := NewCatalog(st, db, ttl)

	mock.ExpectGet(medicineKey(99)).RedisNil()

	if _, err := c.Medicine(context.Background(), 99); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWithinTxEvictsOnCommit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, m := newStore(t)
	c := NewCatalog(st, db, ttl)
	ctx := context.Background()

	mock.ExpectDel(medicineKey(m.ID)).SetVal(1)

	err := c.WithinTx(ctx, func(tx store.Tx) error {
		return tx.DecrementStock(ctx, m.ID, 5, 4)
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWithinTxKeepsCacheOnRollback(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, m := newStore(t)
	c := NewCatalog(st, db, ttl)
	ctx := context.Background()

	err := c.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.DecrementStock(ctx, m.ID, 5, 4); err != nil {
			return err
		}
		return errors.New("insert failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// no Del expected
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFillRacingEvictionDeletesItsWrite(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, m := newStore(t)
	c := NewCatalog(st, db, ttl)
	ctx := context.Background()
	key := medicineKey(m.ID)

	// A commit lands between the store read and the cache write.
	st.onRead = func() { c.Invalidate(ctx, m.ID) }

	payload, _ := json.Marshal(m)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectDel(key).SetVal(0)
	mock.ExpectSet(key, payload, ttl).SetVal("OK")
	mock.ExpectDel(key).SetVal(1)

	if _, err := c.Medicine(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFillIgnoresCallerCancellation(t *testing.T) {
	db, mock := redismock.NewClientMock()
	st, m := newStore(t)
	c := NewCatalog(st, db, ttl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload, _ := json.Marshal(m)
	mock.ExpectGet(medicineKey(m.ID)).RedisNil()
	mock.ExpectSet(medicineKey(m.ID), payload, ttl).SetVal("OK")

	got, err := c.Medicine(ctx, m.ID)
	if err != nil {
		t.Fatalf("fill failed with the caller's cancellation: %v", err)
	}
	if got.Quantity != 5 {
		t.Errorf("medicine = %+v", got)
	}
}
