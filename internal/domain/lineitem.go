package domain

// Delivery method codes.
const (
	DeliveryDineIn       = 1
	DeliveryDoorDelivery = 2
	DeliveryPickUp       = 3
)

// Payment method codes.
const (
	PaymentCash    = 1
	PaymentCard    = 2
	PaymentEWallet = 3
)

// Size codes.
const (
	SizeRegular = 1
	SizeMedium  = 2
	SizeLarge   = 3
)

// LineItem is one entry of a shopper's checkout. UUID is its identity: a
// checkout holds at most one line item per UUID. Product fields are copied
// from the catalog when the item is first added and are never refreshed.
type LineItem struct {
	UUID        string `json:"uuid"`
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Count       int    `json:"count"`
	Delivery    int    `json:"delivery"`
	Payment     int    `json:"payment"`
	Size        int    `json:"size"`
	Ice         bool   `json:"ice"`
}

// Subtotal returns price times count.
func (li LineItem) Subtotal() int64 {
	return li.Price * int64(li.Count)
}

// Options are the per-item choices a shopper can change after adding.
type Options struct {
	Delivery int  `json:"delivery"`
	Payment  int  `json:"payment"`
	Size     int  `json:"size"`
	Ice      bool `json:"ice"`
}

// DefaultOptions are applied to a line item on first add.
func DefaultOptions() Options {
	return Options{
		Delivery: DeliveryDineIn,
		Payment:  PaymentCash,
		Size:     SizeRegular,
		Ice:      false,
	}
}

// WithDefaults replaces zero codes with their defaults.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Delivery == 0 {
		o.Delivery = d.Delivery
	}
	if o.Payment == 0 {
		o.Payment = d.Payment
	}
	if o.Size == 0 {
		o.Size = d.Size
	}
	return o
}

// Valid reports whether every code is inside its closed set.
func (o Options) Valid() bool {
	return inRange(o.Delivery, DeliveryDineIn, DeliveryPickUp) &&
		inRange(o.Payment, PaymentCash, PaymentEWallet) &&
		inRange(o.Size, SizeRegular, SizeLarge)
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

// Options returns the item's current options.
func (li LineItem) Options() Options {
	return Options{Delivery: li.Delivery, Payment: li.Payment, Size: li.Size, Ice: li.Ice}
}

// WithOptions returns a copy of li carrying o.
func (li LineItem) WithOptions(o Options) LineItem {
	li.Delivery = o.Delivery
	li.Payment = o.Payment
	li.Size = o.Size
	li.Ice = o.Ice
	return li
}

// OptionPatch is a partial option update. Nil fields are left unchanged.
type OptionPatch struct {
	Delivery *int  `json:"delivery,omitempty" validate:"omitempty,min=1,max=3"`
	Payment  *int  `json:"payment,omitempty" validate:"omitempty,min=1,max=3"`
	Size     *int  `json:"size,omitempty" validate:"omitempty,min=1,max=3"`
	Ice      *bool `json:"ice,omitempty"`
}

// Apply overlays the non-nil fields of p onto o.
func (p OptionPatch) Apply(o Options) Options {
	if p.Delivery != nil {
		o.Delivery = *p.Delivery
	}
	if p.Payment != nil {
		o.Payment = *p.Payment
	}
	if p.Size != nil {
		o.Size = *p.Size
	}
	if p.Ice != nil {
		o.Ice = *p.Ice
	}
	return o
}

// Empty reports whether the patch changes nothing.
func (p OptionPatch) Empty() bool {
	return p.Delivery == nil && p.Payment == nil && p.Size == nil && p.Ice == nil
}
