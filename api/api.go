package api

import "github.com/shopspring/decimal"

const (
	EndPointHelp      = "/help"
	EndPointLogin     = "/api/auth/login"
	EndPointRegister  = "/api/auth/register"
	EndPointReports   = "/api/reports"
	EndPointRewards   = "/api/rewards"
	EndPointMyRewards = "/api/rewards/my"
	EndPointBuyReward = "/api/rewards/buy"
	EndPointPushToken = "/api/push-token"
)

// UserRecord is the user as the service returns it. Points is a pointer
// because older deployments omit the field entirely.
type UserRecord struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Points *int   `json:"points,omitempty"`
}

type LoginArgs struct {
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

type LoginResp struct {
	Success bool        `json:"success"`
	User    *UserRecord `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
	Message string      `json:"message,omitempty"`
}

type RegisterArgs struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AIResponse is the analysis block attached to a report by the service.
type AIResponse struct {
	Description string `json:"description"`
	IssueType   string `json:"issue_type"`
}

// Report is the server-side record of one submitted issue.
type Report struct {
	ID         int64      `json:"id"`
	ImagePath  string     `json:"imagePath"`
	CreatedAt  string     `json:"createdAt"`
	Status     string     `json:"status"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	AIResponse AIResponse `json:"aiResponse"`
	Points     int        `json:"points"`
}

type ReportListResp struct {
	Reports []Report `json:"reports"`
}

// SubmitResp is what the service answers to a multipart report submission.
type SubmitResp struct {
	ID         int64   `json:"id"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type Reward struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	PointCost int             `json:"pointCost"`
	Value     decimal.Decimal `json:"value"`
	Icon      string          `json:"icon,omitempty"`
}

type RewardListResp struct {
	Rewards []Reward `json:"rewards"`
}

type BuyRewardArgs struct {
	RewardID int64 `json:"rewardId"`
}

type BuyRewardResp struct {
	Success         bool   `json:"success"`
	RemainingPoints int    `json:"remainingPoints"`
	Message         string `json:"message,omitempty"`
}

type PushTokenArgs struct {
	Token string `json:"token"`
}

type ErrorResp struct {
	Error string `json:"error"`
}

type MessageResp struct {
	Message string `json:"message"`
}
