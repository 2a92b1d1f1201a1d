package store

import "database/sql"

// PartOrder is the canonical record of a requested spare part.
type PartOrder struct {
	ID              int64   `json:"id"`
	UUID            string  `json:"uuid"`
	PartName        string  `json:"part_name"`
	PartNumber      string  `json:"part_number"`
	Quantity        int64   `json:"quantity"`
	Description     string  `json:"description"`
	Urgency         string  `json:"urgency"`
	Warranty        string  `json:"warranty"`
	Status          string  `json:"status"`
	ServiceID       *int64  `json:"service_id"`
	TechnicianID    *int64  `json:"technician_id"`
	EstimatedCost   *string `json:"estimated_cost"`
	ActualCost      *string `json:"actual_cost"`
	SupplierPartyID *int64  `json:"supplier_party_id"`
	PartnerPartyID  *int64  `json:"partner_party_id"`
	AdminNotes      string  `json:"admin_notes"`
	SupplierNotes   string  `json:"supplier_notes"`
	OrderedAt       *string `json:"ordered_at"`
	ReceivedAt      *string `json:"received_at"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`

	// Joined fields
	AssignedPartyName string `json:"assigned_party_name"`
}

// OrderHistory records a status transition.
type OrderHistory struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Actor     string `json:"actor"`
	Detail    string `json:"detail"`
	CreatedAt string `json:"created_at"`
}

const orderSelectCols = `o.id, o.uuid, o.part_name, o.part_number, o.quantity, o.description,
	o.urgency, o.warranty, o.status, o.service_id, o.technician_id,
	o.estimated_cost, o.actual_cost, o.supplier_party_id, o.partner_party_id,
	o.admin_notes, o.supplier_notes, o.ordered_at, o.received_at, o.created_at, o.updated_at,
	COALESCE(sp.name, pp.name, '')`

const orderJoin = `FROM part_orders o
	LEFT JOIN parties sp ON sp.id = o.supplier_party_id
	LEFT JOIN parties pp ON pp.id = o.partner_party_id`

func scanOrder(row interface{ Scan(...interface{}) error }, o *PartOrder) error {
	return row.Scan(&o.ID, &o.UUID, &o.PartName, &o.PartNumber, &o.Quantity, &o.Description,
		&o.Urgency, &o.Warranty, &o.Status, &o.ServiceID, &o.TechnicianID,
		&o.EstimatedCost, &o.ActualCost, &o.SupplierPartyID, &o.PartnerPartyID,
		&o.AdminNotes, &o.SupplierNotes, &o.OrderedAt, &o.ReceivedAt, &o.CreatedAt, &o.UpdatedAt,
		&o.AssignedPartyName)
}

func scanOrders(rows *sql.Rows) ([]PartOrder, error) {
	var orders []PartOrder
	for rows.Next() {
		var o PartOrder
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (db *DB) ListOrders() ([]PartOrder, error) {
	rows, err := db.Query(`SELECT ` + orderSelectCols + ` ` + orderJoin + ` ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) ListOrdersByStatus(status string) ([]PartOrder, error) {
	rows, err := db.Query(`SELECT `+orderSelectCols+` `+orderJoin+`
		WHERE o.status = ?
		ORDER BY o.created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) ListOrdersByTechnician(technicianID int64) ([]PartOrder, error) {
	rows, err := db.Query(`SELECT `+orderSelectCols+` `+orderJoin+`
		WHERE o.technician_id = ?
		ORDER BY o.created_at DESC`, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) ListOrdersByService(serviceID int64) ([]PartOrder, error) {
	rows, err := db.Query(`SELECT `+orderSelectCols+` `+orderJoin+`
		WHERE o.service_id = ?
		ORDER BY o.created_at DESC`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (db *DB) GetOrder(id int64) (*PartOrder, error) {
	o := &PartOrder{}
	err := scanOrder(db.QueryRow(`SELECT `+orderSelectCols+` `+orderJoin+` WHERE o.id = ?`, id), o)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (db *DB) GetOrderByUUID(uuid string) (*PartOrder, error) {
	o := &PartOrder{}
	err := scanOrder(db.QueryRow(`SELECT `+orderSelectCols+` `+orderJoin+` WHERE o.uuid = ?`, uuid), o)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrder inserts a new part order and returns its rowid.
func (db *DB) CreateOrder(o *PartOrder) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO part_orders (uuid, part_name, part_number, quantity, description, urgency,
			warranty, status, service_id, technician_id, estimated_cost, admin_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UUID, o.PartName, o.PartNumber, o.Quantity, o.Description, o.Urgency,
		o.Warranty, o.Status, o.ServiceID, o.TechnicianID, o.EstimatedCost, o.AdminNotes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) UpdateOrderStatus(id int64, newStatus string) error {
	_, err := db.Exec(`UPDATE part_orders SET status=?, updated_at=datetime('now','localtime') WHERE id=?`, newStatus, id)
	return err
}

// UpdateOrderStatusFrom updates the status only when the current status still
// matches expected. Returns false when another writer got there first.
func (db *DB) UpdateOrderStatusFrom(id int64, expected, newStatus string) (bool, error) {
	res, err := db.Exec(`UPDATE part_orders SET status=?, updated_at=datetime('now','localtime')
		WHERE id=? AND status=?`, newStatus, id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AssignOrderParty sets exactly one of the two party references. The caller
// decides which column based on the party kind.
func (db *DB) AssignOrderParty(id int64, partyID int64, partner bool, newStatus string) error {
	col := "supplier_party_id"
	if partner {
		col = "partner_party_id"
	}
	_, err := db.Exec(`UPDATE part_orders SET `+col+`=?, status=?, ordered_at=datetime('now','localtime'),
		updated_at=datetime('now','localtime') WHERE id=?`, partyID, newStatus, id)
	return err
}

func (db *DB) UpdateOrderActualCost(id int64, actualCost string) error {
	_, err := db.Exec(`UPDATE part_orders SET actual_cost=?, received_at=datetime('now','localtime'),
		updated_at=datetime('now','localtime') WHERE id=?`, actualCost, id)
	return err
}

func (db *DB) UpdateOrderNotes(id int64, adminNotes, supplierNotes string) error {
	_, err := db.Exec(`UPDATE part_orders SET admin_notes=?, supplier_notes=?,
		updated_at=datetime('now','localtime') WHERE id=?`, adminNotes, supplierNotes, id)
	return err
}

// DeleteOrder removes an order row with its history and queued notifications.
// Stock that originated from the order is kept and detached; the service
// layer refuses the call while tasks or allocations reference it.
func (db *DB) DeleteOrder(id int64) error {
	if _, err := db.Exec(`DELETE FROM outbox WHERE order_id = ?`, id); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM order_history WHERE order_id = ?`, id); err != nil {
		return err
	}
	// Only terminal tasks can remain at this point.
	if _, err := db.Exec(`DELETE FROM tasks WHERE order_id = ?`, id); err != nil {
		return err
	}
	if _, err := db.Exec(`UPDATE stock_items SET order_id = NULL WHERE order_id = ?`, id); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM part_orders WHERE id = ?`, id)
	return err
}

func (db *DB) InsertOrderHistory(orderID int64, oldStatus, newStatus, actor, detail string) error {
	_, err := db.Exec(`INSERT INTO order_history (order_id, old_status, new_status, actor, detail) VALUES (?, ?, ?, ?, ?)`,
		orderID, oldStatus, newStatus, actor, detail)
	return err
}

func (db *DB) ListOrderHistory(orderID int64) ([]OrderHistory, error) {
	rows, err := db.Query(`SELECT id, order_id, old_status, new_status, actor, detail, created_at
		FROM order_history WHERE order_id = ? ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []OrderHistory
	for rows.Next() {
		var h OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.OldStatus, &h.NewStatus, &h.Actor, &h.Detail, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
