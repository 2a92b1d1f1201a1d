package store

import "database/sql"

// StockItem is a warehouse line: on-hand quantity of a received part.
type StockItem struct {
	ID         int64   `json:"id"`
	PartName   string  `json:"part_name"`
	PartNumber string  `json:"part_number"`
	Quantity   int64   `json:"quantity"`
	UnitCost   *string `json:"unit_cost"`
	Location   string  `json:"location"`
	Warranty   string  `json:"warranty"`
	OrderID    *int64  `json:"order_id"`
	ServiceID  *int64  `json:"service_id"`
	Notes      string  `json:"notes"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// Allocation binds a quantity of a stock item to a technician and service.
type Allocation struct {
	ID           int64  `json:"id"`
	StockItemID  int64  `json:"stock_item_id"`
	ServiceID    int64  `json:"service_id"`
	TechnicianID int64  `json:"technician_id"`
	Quantity     int64  `json:"quantity"`
	AllocatedBy  string `json:"allocated_by"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`

	// Joined fields
	PartName   string `json:"part_name"`
	PartNumber string `json:"part_number"`
}

// ActivityEntry is one immutable row of the warehouse audit trail.
type ActivityEntry struct {
	ID           int64  `json:"id"`
	StockItemID  int64  `json:"stock_item_id"`
	Action       string `json:"action"`
	PrevQuantity int64  `json:"prev_quantity"`
	NewQuantity  int64  `json:"new_quantity"`
	Actor        string `json:"actor"`
	ServiceID    *int64 `json:"service_id"`
	Detail       string `json:"detail"`
	CreatedAt    string `json:"created_at"`
}

const stockCols = `id, part_name, part_number, quantity, unit_cost, location, warranty,
	order_id, service_id, notes, created_at, updated_at`

func scanStockItem(row interface{ Scan(...interface{}) error }, s *StockItem) error {
	return row.Scan(&s.ID, &s.PartName, &s.PartNumber, &s.Quantity, &s.UnitCost, &s.Location,
		&s.Warranty, &s.OrderID, &s.ServiceID, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
}

func (db *DB) ListStockItems() ([]StockItem, error) {
	rows, err := db.Query(`SELECT ` + stockCols + ` FROM stock_items ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockItem
	for rows.Next() {
		var s StockItem
		if err := scanStockItem(rows, &s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (db *DB) GetStockItem(id int64) (*StockItem, error) {
	s := &StockItem{}
	if err := scanStockItem(db.QueryRow(`SELECT `+stockCols+` FROM stock_items WHERE id = ?`, id), s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetStockItemByOrder returns the stock item that originated from an order.
func (db *DB) GetStockItemByOrder(orderID int64) (*StockItem, error) {
	s := &StockItem{}
	if err := scanStockItem(db.QueryRow(`SELECT `+stockCols+` FROM stock_items WHERE order_id = ?`, orderID), s); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) CreateStockItem(s *StockItem) (int64, error) {
	res, err := db.Exec(`INSERT INTO stock_items (part_name, part_number, quantity, unit_cost,
		location, warranty, order_id, service_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.PartName, s.PartNumber, s.Quantity, s.UnitCost, s.Location, s.Warranty,
		s.OrderID, s.ServiceID, s.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddStockQuantity increments on-hand quantity (receipt, return).
func (db *DB) AddStockQuantity(id, delta int64) error {
	_, err := db.Exec(`UPDATE stock_items SET quantity = quantity + ?,
		updated_at=datetime('now','localtime') WHERE id=?`, delta, id)
	return err
}

// TakeStockQuantity decrements on-hand quantity only when enough remains.
// Returns false without changing anything when the decrement would go
// negative, so a failed allocation leaves the quantity untouched.
func (db *DB) TakeStockQuantity(id, qty int64) (bool, error) {
	res, err := db.Exec(`UPDATE stock_items SET quantity = quantity - ?,
		updated_at=datetime('now','localtime') WHERE id=? AND quantity >= ?`, qty, id, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) CreateAllocation(a *Allocation) (int64, error) {
	res, err := db.Exec(`INSERT INTO allocations (stock_item_id, service_id, technician_id,
		quantity, allocated_by, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.StockItemID, a.ServiceID, a.TechnicianID, a.Quantity, a.AllocatedBy, a.Status, a.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const allocCols = `a.id, a.stock_item_id, a.service_id, a.technician_id, a.quantity,
	a.allocated_by, a.status, a.notes, a.created_at, a.updated_at,
	COALESCE(s.part_name, ''), COALESCE(s.part_number, '')`

const allocJoin = `FROM allocations a LEFT JOIN stock_items s ON s.id = a.stock_item_id`

func scanAllocations(rows *sql.Rows) ([]Allocation, error) {
	var allocs []Allocation
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.ID, &a.StockItemID, &a.ServiceID, &a.TechnicianID, &a.Quantity,
			&a.AllocatedBy, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
			&a.PartName, &a.PartNumber); err != nil {
			return nil, err
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func (db *DB) GetAllocation(id int64) (*Allocation, error) {
	a := &Allocation{}
	err := db.QueryRow(`SELECT `+allocCols+` `+allocJoin+` WHERE a.id = ?`, id).
		Scan(&a.ID, &a.StockItemID, &a.ServiceID, &a.TechnicianID, &a.Quantity,
			&a.AllocatedBy, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
			&a.PartName, &a.PartNumber)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (db *DB) ListAllocationsForStockItem(stockItemID int64) ([]Allocation, error) {
	rows, err := db.Query(`SELECT `+allocCols+` `+allocJoin+`
		WHERE a.stock_item_id = ? ORDER BY a.created_at`, stockItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (db *DB) ListAllocationsForTechnician(technicianID int64) ([]Allocation, error) {
	rows, err := db.Query(`SELECT `+allocCols+` `+allocJoin+`
		WHERE a.technician_id = ? ORDER BY a.created_at DESC`, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAllocations(rows)
}

// MarkAllocation sets the terminal consumed/returned marker. Allocations are
// otherwise immutable once created.
func (db *DB) MarkAllocation(id int64, status string) error {
	_, err := db.Exec(`UPDATE allocations SET status=?, updated_at=datetime('now','localtime') WHERE id=?`, status, id)
	return err
}

// CountAllocationsForOrder counts allocations against the stock item that
// originated from an order.
func (db *DB) CountAllocationsForOrder(orderID int64) (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM allocations a
		JOIN stock_items s ON s.id = a.stock_item_id
		WHERE s.order_id = ?`, orderID).Scan(&n)
	return n, err
}

// AppendActivity writes one audit row. The log is append-only; nothing in the
// codebase updates or deletes these rows.
func (db *DB) AppendActivity(e *ActivityEntry) error {
	_, err := db.Exec(`INSERT INTO activity_log (stock_item_id, action, prev_quantity, new_quantity,
		actor, service_id, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.StockItemID, e.Action, e.PrevQuantity, e.NewQuantity, e.Actor, e.ServiceID, e.Detail)
	return err
}

func (db *DB) ListActivity(stockItemID int64) ([]ActivityEntry, error) {
	q := `SELECT id, stock_item_id, action, prev_quantity, new_quantity, actor, service_id, detail, created_at
		FROM activity_log`
	args := []interface{}{}
	if stockItemID > 0 {
		q += ` WHERE stock_item_id = ?`
		args = append(args, stockItemID)
	}
	q += ` ORDER BY created_at, id`
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.StockItemID, &e.Action, &e.PrevQuantity, &e.NewQuantity,
			&e.Actor, &e.ServiceID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
