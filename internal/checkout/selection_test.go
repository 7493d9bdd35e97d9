package checkout

import (
	"errors"
	"testing"

	"github.com/soleshopapp/soleshop/internal/catalog"
)

func selectionCatalog() *catalog.Catalog {
	return catalog.NewCatalog([]catalog.RawVariant{
		{
			ColorID:   10,
			ColorName: "Black",
			Sizes: []catalog.RawSize{
				{Size: "40", Quantity: 0, LineItemID: 101},
				{Size: "41", Quantity: 3, LineItemID: 102},
				{Size: "42", Quantity: 1, LineItemID: 103},
			},
		},
		{
			ColorID:   11,
			ColorName: "White",
			Sizes: []catalog.RawSize{
				{Size: "41", Quantity: 0, LineItemID: 201},
			},
		},
	})
}

func TestSelection_SelectColorPicksFirstInStockSize(t *testing.T) {
	t.Parallel()

	s := NewSelection(selectionCatalog())
	s.SelectColor(10)

	colorID, size, quantity, ok := s.Current()
	if !ok {
		t.Fatal("expected a complete selection")
	}
	if colorID != 10 || size != "41" || quantity != 1 {
		t.Errorf("unexpected selection: color=%d size=%s qty=%d", colorID, size, quantity)
	}
}

func TestSelection_SelectColorWithoutStockResets(t *testing.T) {
	t.Parallel()

	s := NewSelection(selectionCatalog())
	s.SelectColor(10)
	s.SelectColor(11)

	if _, _, _, ok := s.Current(); ok {
		t.Error("a color with no stocked size must leave the selection incomplete")
	}
	if s.Available() != 0 {
		t.Errorf("expected no availability, got %d", s.Available())
	}
}

func TestSelection_SelectSize(t *testing.T) {
	t.Parallel()

	s := NewSelection(selectionCatalog())
	s.SelectColor(10)
	if err := s.ChangeQuantity(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Picking a new size resets quantity to 1.
	if err := s.SelectSize("42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, size, quantity, _ := s.Current()
	if size != "42" || quantity != 1 {
		t.Errorf("expected size 42 qty 1, got size %s qty %d", size, quantity)
	}

	if err := s.SelectSize("40"); !errors.Is(err, ErrSizeUnavailable) {
		t.Errorf("sold-out size must be unavailable, got %v", err)
	}
	if err := s.SelectSize("39"); !errors.Is(err, ErrSizeUnavailable) {
		t.Errorf("unknown size must be unavailable, got %v", err)
	}
}

func TestSelection_ChangeQuantity(t *testing.T) {
	t.Parallel()

	s := NewSelection(selectionCatalog())
	s.SelectColor(10) // size 41, stock 3

	if err := s.ChangeQuantity(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, quantity, _ := s.Current()
	if quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", quantity)
	}

	// Exceeding stock is rejected with the ceiling, not silently clamped.
	err := s.ChangeQuantity(1)
	var limitErr *QuantityLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected QuantityLimitError, got %v", err)
	}
	if limitErr.Available != 3 {
		t.Errorf("expected ceiling 3, got %d", limitErr.Available)
	}
	if _, _, quantity, _ = s.Current(); quantity != 3 {
		t.Errorf("rejected change must not alter quantity, got %d", quantity)
	}

	// Decrement clamps at 1.
	if err := s.ChangeQuantity(-10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, quantity, _ = s.Current(); quantity != 1 {
		t.Errorf("expected quantity clamped to 1, got %d", quantity)
	}
}

func TestSelection_ChangeQuantityWithoutSize(t *testing.T) {
	t.Parallel()

	s := NewSelection(selectionCatalog())
	if err := s.ChangeQuantity(1); !errors.Is(err, ErrNoSizeSelected) {
		t.Errorf("expected ErrNoSizeSelected, got %v", err)
	}
}

func TestSelection_LineItemID(t *testing.T) {
	t.Parallel()

	s := NewSelection(selectionCatalog())
	if _, ok := s.LineItemID(); ok {
		t.Error("no selection yields no line item id")
	}

	s.SelectColor(10)
	id, ok := s.LineItemID()
	if !ok || id != 102 {
		t.Errorf("expected line item id 102, got %d ok=%v", id, ok)
	}
}
