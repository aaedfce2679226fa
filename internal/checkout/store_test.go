package checkout

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
)

func latte() domain.LineItem {
	return domain.LineItem{UUID: "u1", ProductID: 1, ProductName: "Latte", Price: 20000, Image: "latte.webp"}
}

func mocha() domain.LineItem {
	return domain.LineItem{UUID: "u2", ProductID: 2, ProductName: "Mocha", Price: 25000, Image: "mocha.webp"}
}

func TestStore_AddNewItem(t *testing.T) {
	s := NewStore()

	got := s.AddOrUpdate(latte())

	assert.Equal(t, 1, got.Count)
	assert.Equal(t, domain.DeliveryDineIn, got.Delivery)
	assert.Equal(t, domain.PaymentCash, got.Payment)
	assert.Equal(t, domain.SizeRegular, got.Size)
	assert.False(t, got.Ice)
	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_RepeatAddIncrementsAndKeepsFields(t *testing.T) {
	s := NewStore()
	s.AddOrUpdate(latte())
	_, ok := s.UpdateOptions("u1", domain.Options{Delivery: 2, Payment: 3, Size: 3, Ice: true})
	require.True(t, ok)

	candidate := latte()
	candidate.Price = 99999
	candidate.ProductName = "Renamed"
	got := s.AddOrUpdate(candidate)

	assert.Equal(t, 2, got.Count)
	assert.Equal(t, int64(20000), got.Price)
	assert.Equal(t, "Latte", got.ProductName)
	assert.Equal(t, domain.Options{Delivery: 2, Payment: 3, Size: 3, Ice: true}, got.Options())
	assert.Len(t, s.Items(), 1)
}

func TestStore_FirstAddCountsOne(t *testing.T) {
	s := NewStore()

	s.AddOrUpdate(latte())

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "u1", items[0].UUID)
	assert.Equal(t, 1, items[0].Count)
	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_RepeatAddIncrementsCount(t *testing.T) {
	s := NewStore()

	s.AddOrUpdate(latte())
	s.AddOrUpdate(latte())

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Count)
	assert.Equal(t, 2, s.ItemCount())
}

func TestStore_DistinctItemsSumCounts(t *testing.T) {
	s := NewStore()

	s.AddOrUpdate(latte())
	s.AddOrUpdate(mocha())
	s.AddOrUpdate(latte())

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "u1", items[0].UUID, "insertion order kept")
	assert.Equal(t, 2, items[0].Count)
	assert.Equal(t, "u2", items[1].UUID)
	assert.Equal(t, 1, items[1].Count)
	assert.Equal(t, 3, s.ItemCount())
	assert.Equal(t, int64(2*20000+25000), s.Total())
}

func TestStore_EmptyCount(t *testing.T) {
	s := NewStore()

	assert.Equal(t, 0, s.ItemCount())
	assert.Empty(t, s.Items())
	assert.Equal(t, int64(0), s.Total())
}

func TestStore_ItemsIsACopy(t *testing.T) {
	s := NewStore()
	s.AddOrUpdate(latte())

	items := s.Items()
	items[0].Count = 42
	items[0].UUID = "mutated"

	got := s.Items()
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, "u1", got[0].UUID)
}

func TestStore_UpdateOptionsNeverSplits(t *testing.T) {
	s := NewStore()
	s.AddOrUpdate(latte())
	s.AddOrUpdate(latte())

	got, ok := s.UpdateOptions("u1", domain.Options{Delivery: 3, Payment: 2, Size: 2, Ice: true})

	require.True(t, ok)
	assert.Equal(t, 2, got.Count)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, domain.SizeMedium, s.Items()[0].Size)

	_, ok = s.UpdateOptions("missing", domain.DefaultOptions())
	assert.False(t, ok)
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := NewStore()
	s.AddOrUpdate(latte())
	s.AddOrUpdate(mocha())

	assert.True(t, s.Remove("u1"))
	assert.False(t, s.Remove("u1"))
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "u2", s.Items()[0].UUID)

	s.Clear()
	assert.Empty(t, s.Items())
	assert.Equal(t, 0, s.ItemCount())
}

func TestStore_SubscribersReceiveEachCollectionInOrder(t *testing.T) {
	s := NewStore()
	var first, second [][]domain.LineItem
	var calls []string
	s.Subscribe(func(items []domain.LineItem) {
		calls = append(calls, "first")
		first = append(first, items)
	})
	s.Subscribe(func(items []domain.LineItem) {
		calls = append(calls, "second")
		second = append(second, items)
	})

	s.AddOrUpdate(latte())
	s.AddOrUpdate(latte())
	s.Clear()

	require.Len(t, first, 3)
	assert.Equal(t, 1, first[0][0].Count)
	assert.Equal(t, 2, first[1][0].Count)
	assert.Empty(t, first[2])
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"first", "second", "first", "second", "first", "second"}, calls)
}

func TestStore_PublishedSliceIsPrivate(t *testing.T) {
	s := NewStore()
	s.Subscribe(func(items []domain.LineItem) {
		items[0].Count = 100
	})

	s.AddOrUpdate(latte())

	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore()
	calls := 0
	unsubscribe := s.Subscribe(func([]domain.LineItem) { calls++ })

	s.AddOrUpdate(latte())
	unsubscribe()
	unsubscribe()
	s.AddOrUpdate(latte())

	assert.Equal(t, 1, calls)
}

func TestStore_RestoreDoesNotPublish(t *testing.T) {
	s := NewStore()
	calls := 0
	s.Subscribe(func([]domain.LineItem) { calls++ })

	a := latte()
	a.Count = 3
	dup := latte()
	dup.Count = 9
	s.Restore([]domain.LineItem{a, mocha(), dup})

	assert.Equal(t, 0, calls)
	require.Len(t, s.Items(), 2)
	assert.Equal(t, 3, s.Items()[0].Count)
}

func TestStore_ConcurrentAddsAllCounted(t *testing.T) {
	s := NewStore()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			s.AddOrUpdate(latte())
		}()
	}
	wg.Wait()

	require.Len(t, s.Items(), 1)
	assert.Equal(t, n, s.ItemCount())
}
