package store

// User roles
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
	RolePartner    = "partner"
	RoleSupplier   = "supplier"
)

// User is a portal login. Partner and supplier users carry the party they
// act for.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	PartyID      *int64 `json:"party_id"`
	CreatedAt    string `json:"created_at"`
}

func (db *DB) GetUser(username string) (*User, error) {
	u := &User{}
	err := db.QueryRow(`SELECT id, username, password_hash, role, party_id, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.PartyID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *DB) CreateUser(username, passwordHash, role string, partyID *int64) (int64, error) {
	res, err := db.Exec(`INSERT INTO users (username, password_hash, role, party_id) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, partyID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) UpdateUserPassword(username, passwordHash string) error {
	_, err := db.Exec(`UPDATE users SET password_hash = ? WHERE username = ?`, passwordHash, username)
	return err
}

func (db *DB) ListUsers() ([]User, error) {
	rows, err := db.Query(`SELECT id, username, password_hash, role, party_id, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.PartyID, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) AdminExists() (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = 'admin'`).Scan(&count)
	return count > 0, err
}
