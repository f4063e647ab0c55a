package backend

import (
	"database/sql"
	"fmt"
	"reflect"
	"testing"
	"time"

	"spotit/api"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/shopspring/decimal"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestCreateUser(t *testing.T) {
	it(func() {
		testCases := []struct {
			name  string
			email string

			execError bool

			expectedID    int64
			errorExpected bool
		}{
			{
				name:       "New user",
				email:      "a@x.com",
				expectedID: 7,
			},
			{
				name:          "Duplicate email",
				email:         "a@x.com",
				execError:     true,
				errorExpected: true,
			},
		}

		for _, testCase := range testCases {
			if testCase.execError {
				mock.ExpectExec("INSERT INTO users \\(name, email, password_hash\\) VALUES \\((.+), (.+), (.+)\\)").
					WithArgs("A", testCase.email, "hash").
					WillReturnError(fmt.Errorf("duplicate entry"))
			} else {
				mock.ExpectExec("INSERT INTO users \\(name, email, password_hash\\) VALUES \\((.+), (.+), (.+)\\)").
					WithArgs("A", testCase.email, "hash").
					WillReturnResult(sqlmock.NewResult(testCase.expectedID, 1))
			}

			id, err := createUser(db, "A", testCase.email, "hash")
			if testCase.errorExpected != (err != nil) {
				t.Errorf("%s, createUser: expected error: %v, got error: %v", testCase.name, testCase.errorExpected, err)
			}
			if !testCase.errorExpected && id != testCase.expectedID {
				t.Errorf("%s, createUser: expected id %d, got %d", testCase.name, testCase.expectedID, id)
			}
		}
	})
}

func TestGetUserByEmail(t *testing.T) {
	it(func() {
		testCases := []struct {
			name   string
			exists bool

			expected      *dbUser
			errorExpected bool
		}{
			{
				name:   "Existing user",
				exists: true,
				expected: &dbUser{
					ID: 1, Name: "A", Email: "a@x.com", Phone: "", PasswordHash: "hash", Points: 100,
				},
			},
			{
				name:          "Missing user",
				exists:        false,
				errorExpected: true,
			},
		}

		columns := []string{"id", "name", "email", "phone", "password_hash", "points"}
		for _, testCase := range testCases {
			values := ""
			if testCase.exists {
				values = "1,A,a@x.com,,hash,100"
			}
			mock.ExpectQuery("SELECT id, name, email, phone, password_hash, points FROM users WHERE email = (.+)").
				WithArgs("a@x.com").
				WillReturnRows(sqlmock.NewRows(columns).FromCSVString(values))

			u, err := getUserByEmail(db, "a@x.com")
			if testCase.errorExpected != (err != nil) {
				t.Errorf("%s, getUserByEmail: expected error: %v, got error: %v", testCase.name, testCase.errorExpected, err)
			}
			if !reflect.DeepEqual(u, testCase.expected) {
				t.Errorf("%s, getUserByEmail: expected %+v, got %+v", testCase.name, testCase.expected, u)
			}
		}
	})
}

func TestSaveReportAwardsPoints(t *testing.T) {
	it(func() {
		createdAt := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
		image := []byte{0xFF, 0xD8}

		mock.ExpectExec("INSERT INTO reports \\(user_id, image, created_at, status, latitude, longitude, description, issue_type, points\\)").
			WithArgs(int64(5), image, "2025-03-01 10:30:00", api.StatusPending, 28.6139, 77.209, "", "Garbage Dump", *reportPoints).
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec("UPDATE users SET points = points \\+ (.+) WHERE id = (.+)").
			WithArgs(*reportPoints, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		id, err := saveReport(db, 5, image, 28.6139, 77.209, createdAt, "", "Garbage Dump")
		if err != nil {
			t.Errorf("saveReport: unexpected error %v", err)
		}
		if id != 42 {
			t.Errorf("saveReport: expected id 42, got %d", id)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("saveReport: unmet expectations: %v", err)
		}
	})
}

func TestSaveReportKeepsIDWhenAwardFails(t *testing.T) {
	it(func() {
		createdAt := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
		image := []byte{0xFF, 0xD8}

		mock.ExpectExec("INSERT INTO reports \\(user_id, image, created_at, status, latitude, longitude, description, issue_type, points\\)").
			WithArgs(int64(5), image, "2025-03-01 10:30:00", api.StatusPending, 28.6139, 77.209, "", "Garbage Dump", *reportPoints).
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec("UPDATE users SET points = points \\+ (.+) WHERE id = (.+)").
			WithArgs(*reportPoints, int64(5)).
			WillReturnError(fmt.Errorf("connection lost"))

		id, err := saveReport(db, 5, image, 28.6139, 77.209, createdAt, "", "Garbage Dump")
		if err != nil {
			t.Errorf("saveReport: expected no error once the report row landed, got %v", err)
		}
		if id != 42 {
			t.Errorf("saveReport: expected id 42, got %d", id)
		}
	})
}

func TestListReports(t *testing.T) {
	it(func() {
		columns := []string{"id", "created_at", "status", "latitude", "longitude", "description", "issue_type", "points"}
		mock.ExpectQuery("SELECT id, created_at, status, latitude, longitude, description, issue_type, points FROM reports WHERE user_id = (.+) ORDER BY id").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(10, "2025-03-01 10:00:00", "Analyzed", 28.6139, 77.209, "Market Road", "Overflowing Bin", 50).
				AddRow(11, "2025-03-01 11:00:00", "Pending", 28.6, 77.2, "", "Garbage Dump", 50))

		reports, err := listReports(db, 5)
		if err != nil {
			t.Fatalf("listReports: unexpected error %v", err)
		}

		expected := []api.Report{
			{
				ID: 10, ImagePath: "uploads/10", CreatedAt: "2025-03-01 10:00:00", Status: "Analyzed",
				Latitude: 28.6139, Longitude: 77.209,
				AIResponse: api.AIResponse{Description: "Market Road", IssueType: "Overflowing Bin"}, Points: 50,
			},
			{
				ID: 11, ImagePath: "uploads/11", CreatedAt: "2025-03-01 11:00:00", Status: "Pending",
				Latitude: 28.6, Longitude: 77.2,
				AIResponse: api.AIResponse{IssueType: "Garbage Dump"}, Points: 50,
			},
		}
		if !reflect.DeepEqual(reports, expected) {
			t.Errorf("listReports: expected %+v, got %+v", expected, reports)
		}
	})
}

func TestListRewards(t *testing.T) {
	it(func() {
		columns := []string{"id", "title", "point_cost", "value", "icon"}
		mock.ExpectQuery("SELECT id, title, point_cost, value, icon FROM rewards ORDER BY point_cost").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(1, "Coffee Voucher", 500, "120.00", "cafe"))

		rewards, err := listRewards(db)
		if err != nil {
			t.Fatalf("listRewards: unexpected error %v", err)
		}
		if len(rewards) != 1 {
			t.Fatalf("listRewards: expected 1 reward, got %d", len(rewards))
		}
		expected := api.Reward{ID: 1, Title: "Coffee Voucher", PointCost: 500,
			Value: decimal.RequireFromString("120.00"), Icon: "cafe"}
		if rewards[0].ID != expected.ID || rewards[0].Title != expected.Title ||
			rewards[0].PointCost != expected.PointCost || !rewards[0].Value.Equal(expected.Value) {
			t.Errorf("listRewards: expected %+v, got %+v", expected, rewards[0])
		}
	})
}

func TestBuyReward(t *testing.T) {
	it(func() {
		testCases := []struct {
			name   string
			points int
			cost   int

			expectedRemaining int
			errorExpected     error
		}{
			{
				name:              "Enough points",
				points:            600,
				cost:              500,
				expectedRemaining: 100,
			},
			{
				name:              "Not enough points",
				points:            100,
				cost:              500,
				expectedRemaining: 100,
				errorExpected:     errInsufficientPoints,
			},
		}

		for _, testCase := range testCases {
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT point_cost FROM rewards WHERE id = (.+)").
				WithArgs(int64(1)).
				WillReturnRows(sqlmock.NewRows([]string{"point_cost"}).AddRow(testCase.cost))
			mock.ExpectQuery("SELECT points FROM users WHERE id = (.+) FOR UPDATE").
				WithArgs(int64(5)).
				WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(testCase.points))
			if testCase.errorExpected == nil {
				mock.ExpectExec("UPDATE users SET points = points - (.+) WHERE id = (.+)").
					WithArgs(testCase.cost, int64(5)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO user_rewards \\(user_id, reward_id, bought_at\\) VALUES (.+)").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			remaining, err := buyReward(db, 5, 1)
			if err != testCase.errorExpected {
				t.Errorf("%s, buyReward: expected error %v, got %v", testCase.name, testCase.errorExpected, err)
			}
			if remaining != testCase.expectedRemaining {
				t.Errorf("%s, buyReward: expected remaining %d, got %d", testCase.name, testCase.expectedRemaining, remaining)
			}
		}
	})
}
