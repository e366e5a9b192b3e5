package model

type PickedStatus string

const (
	PickPending  PickedStatus = "PENDING"
	PickPicked   PickedStatus = "PICKED"
	PickMissing  PickedStatus = "MISSING"
	PickReplaced PickedStatus = "REPLACED"
)

type PickingItem struct {
	ID           string       `json:"id"`
	ProductID    string       `json:"productId"`
	Name         string       `json:"name"`
	Quantity     int          `json:"quantity"`
	PickedStatus PickedStatus `json:"pickedStatus"`
}

type PickingOrder struct {
	ID          string        `json:"id"`
	OrderNumber string        `json:"orderNumber"`
	Status      string        `json:"status"`
	BranchID    string        `json:"branchId"`
	Items       []PickingItem `json:"items"`
}

type InventoryRecord struct {
	ID                string `json:"id"`
	BranchID          string `json:"branchId"`
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	AvailableQuantity int    `json:"availableQuantity"`
	ReservedQuantity  int    `json:"reservedQuantity"`
}

type OpsStats struct {
	OrdersToday   int `json:"ordersToday"`
	PendingPicks  int `json:"pendingPicks"`
	LowStockCount int `json:"lowStockCount"`
}
