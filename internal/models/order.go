package models

// Order owns its OrderItems. CustomerID is not a database constraint, it is
// checked against the customer service when the order is written.
type Order struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	CustomerID uint        `json:"customerId" gorm:"index;not null"`
	OrderItems []OrderItem `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem links back to its Order through OrderID only. The link is never
// serialized.
type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"-" gorm:"index;not null"`
	ProductID uint    `json:"productId" gorm:"not null"`
	Quantity  float64 `json:"quantity" gorm:"not null"`
}

// Attach makes o the owner of every item.
func (o *Order) Attach() {
	for i := range o.OrderItems {
		o.OrderItems[i].OrderID = o.ID
	}
}
