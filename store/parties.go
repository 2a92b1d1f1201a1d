package store

import "database/sql"

// Party kinds
const (
	PartySupplier = "supplier"
	PartyPartner  = "partner"
)

// Party is a fulfillment party: an external supplier or an internal business
// partner capable of sourcing a part.
type Party struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Brands       string `json:"brands"` // comma-separated brand associations
	Priority     int64  `json:"priority"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

const partyCols = `id, kind, name, contact_email, contact_phone, brands, priority, active, created_at, updated_at`

func scanParties(rows *sql.Rows) ([]Party, error) {
	var parties []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name, &p.ContactEmail, &p.ContactPhone,
			&p.Brands, &p.Priority, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

// ListParties returns all parties in insertion order. Registry iteration
// order must stay stable so token-match ties resolve deterministically.
func (db *DB) ListParties() ([]Party, error) {
	rows, err := db.Query(`SELECT ` + partyCols + ` FROM parties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParties(rows)
}

// ListActiveParties returns active parties of a kind in insertion order.
// Empty kind means both suppliers and partners.
func (db *DB) ListActiveParties(kind string) ([]Party, error) {
	q := `SELECT ` + partyCols + ` FROM parties WHERE active = 1`
	args := []interface{}{}
	if kind != "" {
		q += ` AND kind = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY id`
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParties(rows)
}

func (db *DB) GetParty(id int64) (*Party, error) {
	p := &Party{}
	err := db.QueryRow(`SELECT `+partyCols+` FROM parties WHERE id = ?`, id).
		Scan(&p.ID, &p.Kind, &p.Name, &p.ContactEmail, &p.ContactPhone,
			&p.Brands, &p.Priority, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *DB) GetPartyByName(name string) (*Party, error) {
	p := &Party{}
	err := db.QueryRow(`SELECT `+partyCols+` FROM parties WHERE name = ?`, name).
		Scan(&p.ID, &p.Kind, &p.Name, &p.ContactEmail, &p.ContactPhone,
			&p.Brands, &p.Priority, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *DB) CreateParty(kind, name, contactEmail, contactPhone, brands string, priority int64) (int64, error) {
	res, err := db.Exec(`INSERT INTO parties (kind, name, contact_email, contact_phone, brands, priority)
		VALUES (?, ?, ?, ?, ?, ?)`, kind, name, contactEmail, contactPhone, brands, priority)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) UpdateParty(id int64, contactEmail, contactPhone, brands string, priority int64, active bool) error {
	_, err := db.Exec(`UPDATE parties SET contact_email=?, contact_phone=?, brands=?, priority=?, active=?,
		updated_at=datetime('now','localtime') WHERE id=?`,
		contactEmail, contactPhone, brands, priority, active, id)
	return err
}

func (db *DB) DeleteParty(id int64) error {
	_, err := db.Exec(`DELETE FROM parties WHERE id = ?`, id)
	return err
}
