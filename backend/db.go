package backend

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"spotit/api"
	"spotit/common"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
)

var (
	reportPoints = flag.Int("report_points", 50, "Points awarded per submitted report.")
)

type dbUser struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Points       int
}

func createUser(db *sql.DB, name, email, passwordHash string) (int64, error) {
	log.Infof("Write: Trying to create user %s", email)
	result, err := db.Exec(`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, passwordHash)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func getUserByEmail(db *sql.DB, email string) (*dbUser, error) {
	return getUser(db, `SELECT id, name, email, phone, password_hash, points FROM users WHERE email = ?`, email)
}

func getUserByPhone(db *sql.DB, phone string) (*dbUser, error) {
	return getUser(db, `SELECT id, name, email, phone, password_hash, points FROM users WHERE phone = ?`, phone)
}

func getUserByID(db *sql.DB, id int64) (*dbUser, error) {
	return getUser(db, `SELECT id, name, email, phone, password_hash, points FROM users WHERE id = ?`, id)
}

func getUser(db *sql.DB, query string, arg interface{}) (*dbUser, error) {
	rows, err := db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, sql.ErrNoRows
	}
	u := &dbUser{}
	if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Points); err != nil {
		return nil, err
	}
	return u, nil
}

// saveReport stores one report and credits the submitter. The award is a
// separate statement, not a transaction; a crash between the two loses the
// points, which the dev service tolerates.
func saveReport(db *sql.DB, userID int64, image []byte, latitude, longitude float64, createdAt time.Time, description, issueType string) (int64, error) {
	log.Infof("Write: Trying to save report from user %d at %f,%f", userID, latitude, longitude)
	result, err := db.Exec(`INSERT
	  INTO reports (user_id, image, created_at, status, latitude, longitude, description, issue_type, points)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, image, createdAt.UTC().Format("2006-01-02 15:04:05"), api.StatusPending,
		latitude, longitude, description, issueType, *reportPoints)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	// The report row landed; an award failure is logged but must not turn
	// into an error response, or a retrying client would duplicate the report.
	award, awardErr := db.Exec(`UPDATE users SET points = points + ? WHERE id = ?`, *reportPoints, userID)
	common.LogResult("award report points", award, awardErr, true)
	return id, nil
}

func listReports(db *sql.DB, userID int64) ([]api.Report, error) {
	rows, err := db.Query(`
	  SELECT id, created_at, status, latitude, longitude, description, issue_type, points
	  FROM reports
	  WHERE user_id = ?
	  ORDER BY id`, userID)
	if err != nil {
		log.Errorf("Could not retrieve reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	reports := make([]api.Report, 0, 16)
	for rows.Next() {
		var (
			r         api.Report
			createdAt string
		)
		if err := rows.Scan(&r.ID, &createdAt, &r.Status, &r.Latitude, &r.Longitude,
			&r.AIResponse.Description, &r.AIResponse.IssueType, &r.Points); err != nil {
			log.Errorf("Cannot scan a report row: %v", err)
			continue
		}
		r.CreatedAt = createdAt
		r.ImagePath = fmt.Sprintf("uploads/%d", r.ID)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func getReportImage(db *sql.DB, id int64) ([]byte, error) {
	rows, err := db.Query(`SELECT image FROM reports WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, sql.ErrNoRows
	}
	var image []byte
	if err := rows.Scan(&image); err != nil {
		return nil, err
	}
	return image, nil
}

func scanRewards(rows *sql.Rows) ([]api.Reward, error) {
	rewards := make([]api.Reward, 0, 8)
	for rows.Next() {
		var (
			r     api.Reward
			value string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.PointCost, &value, &r.Icon); err != nil {
			return nil, err
		}
		v, err := decimal.NewFromString(value)
		if err != nil {
			log.Errorf("Bad reward value %q: %v", value, err)
			v = decimal.Zero
		}
		r.Value = v
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

func listRewards(db *sql.DB) ([]api.Reward, error) {
	rows, err := db.Query(`SELECT id, title, point_cost, value, icon FROM rewards ORDER BY point_cost`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRewards(rows)
}

func myRewards(db *sql.DB, userID int64) ([]api.Reward, error) {
	rows, err := db.Query(`
	  SELECT r.id, r.title, r.point_cost, r.value, r.icon
	  FROM user_rewards ur JOIN rewards r ON ur.reward_id = r.id
	  WHERE ur.user_id = ?
	  ORDER BY ur.bought_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRewards(rows)
}

var errInsufficientPoints = fmt.Errorf("not enough points")

// buyReward debits the reward cost and records the purchase in one
// serializable transaction. Returns the remaining balance.
func buyReward(db *sql.DB, userID, rewardID int64) (int, error) {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return 0, err
	}
	defer tx.Rollback()

	var cost int
	if err := tx.QueryRow(`SELECT point_cost FROM rewards WHERE id = ?`, rewardID).Scan(&cost); err != nil {
		return 0, err
	}
	var points int
	if err := tx.QueryRow(`SELECT points FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&points); err != nil {
		return 0, err
	}
	if points < cost {
		return points, errInsufficientPoints
	}

	if _, err := tx.Exec(`UPDATE users SET points = points - ? WHERE id = ?`, cost, userID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`INSERT INTO user_rewards (user_id, reward_id, bought_at) VALUES (?, ?, ?)`,
		userID, rewardID, time.Now().UTC().Format("2006-01-02 15:04:05")); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return points - cost, nil
}

func savePushToken(db *sql.DB, userID int64, token string) error {
	result, err := db.Exec(`INSERT INTO push_tokens (user_id, token, updated_at) VALUES (?, ?, ?)
	  ON DUPLICATE KEY UPDATE token=?, updated_at=?`,
		userID, token, time.Now().UTC().Format("2006-01-02 15:04:05"),
		token, time.Now().UTC().Format("2006-01-02 15:04:05"))
	common.LogResult("save push token", result, err, false)
	return err
}

func seedRewards(db *sql.DB) error {
	rows, err := db.Query(`SELECT COUNT(*) FROM rewards`)
	if err != nil {
		return err
	}
	defer rows.Close()

	cnt := 0
	if rows.Next() {
		if err := rows.Scan(&cnt); err != nil {
			return err
		}
	}
	if cnt > 0 {
		return nil
	}

	catalogue := []struct {
		title string
		cost  int
		value string
		icon  string
	}{
		{"Coffee Voucher", 500, "120.00", "cafe"},
		{"Movie Ticket", 1000, "250.00", "film"},
		{"Metro Smart Card", 2000, "500.00", "train"},
		{"Shopping Coupon", 5000, "1000.00", "cart"},
	}
	for _, r := range catalogue {
		if _, err := db.Exec(`INSERT INTO rewards (title, point_cost, value, icon) VALUES (?, ?, ?, ?)`,
			r.title, r.cost, r.value, r.icon); err != nil {
			return err
		}
	}
	return nil
}
