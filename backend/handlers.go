package backend

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"spotit/api"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	db *sql.DB
}

func (h *handlers) Help(c *gin.Context) {
	c.String(http.StatusOK, `
	SpotIt dev API:
	local stand-in for the SpotIt service, version 1.
	`)
}

func (h *handlers) Login(c *gin.Context) {
	var args api.LoginArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in %s call: %v", api.EndPointLogin, err)
		c.JSON(http.StatusBadRequest, api.LoginResp{Success: false, Message: "could not read JSON input"})
		return
	}

	var (
		u   *dbUser
		err error
	)
	switch {
	case args.Email != "":
		u, err = getUserByEmail(h.db, args.Email)
	case args.Phone != "":
		u, err = getUserByPhone(h.db, args.Phone)
	default:
		c.JSON(http.StatusBadRequest, api.LoginResp{Success: false, Message: "email or phone required"})
		return
	}
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !checkPassword(u.PasswordHash, args.Password)) {
		c.JSON(http.StatusUnauthorized, api.LoginResp{Success: false, Message: "invalid credentials"})
		return
	}
	if err != nil {
		log.Errorf("Login lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.LoginResp{Success: false, Message: "login failed"})
		return
	}

	token, err := makeToken(u.ID)
	if err != nil {
		log.Errorf("Token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.LoginResp{Success: false, Message: "login failed"})
		return
	}

	points := u.Points
	c.JSON(http.StatusOK, api.LoginResp{
		Success: true,
		User: &api.UserRecord{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Phone:  u.Phone,
			Points: &points,
		},
		Token: token,
	})
}

func (h *handlers) Register(c *gin.Context) {
	var args api.RegisterArgs
	if err := c.BindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResp{Error: "could not read JSON input"})
		return
	}
	if args.Name == "" || args.Email == "" || args.Password == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResp{Error: "name, email and password are required"})
		return
	}

	hash, err := hashPassword(args.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResp{Error: "registration failed"})
		return
	}
	if _, err := createUser(h.db, args.Name, args.Email, hash); err != nil {
		log.Errorf("Failed to create user: %v", err)
		c.JSON(http.StatusConflict, api.ErrorResp{Error: "user already exists"})
		return
	}
	c.JSON(http.StatusCreated, api.MessageResp{Message: "registered"})
}

// classify is the dev stand-in for the image analysis pipeline: a
// deterministic pick keyed on the image bytes.
var categories = []string{"Garbage Dump", "Overflowing Bin", "Littered Street", "Open Drain"}

func classify(image []byte) (string, float64) {
	sum := 0
	for _, b := range image {
		sum += int(b)
	}
	return categories[sum%len(categories)], 0.90 + float64(sum%10)/100
}

func (h *handlers) SubmitReport(c *gin.Context) {
	userID := c.GetInt64("user_id")

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResp{Error: "image is required"})
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil || len(image) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResp{Error: "could not read image"})
		return
	}

	latitude, errLat := strconv.ParseFloat(c.PostForm("latitude"), 64)
	longitude, errLon := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResp{Error: "latitude and longitude are required"})
		return
	}

	createdAt := time.Now()
	if ts, err := strconv.ParseInt(c.PostForm("timestamp"), 10, 64); err == nil && ts > 0 {
		createdAt = time.UnixMilli(ts)
	}

	category, confidence := classify(image)
	id, err := saveReport(h.db, userID, image, latitude, longitude, createdAt, "", category)
	if err != nil {
		log.Errorf("Failed to save report: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResp{Error: "failed to save the report"})
		return
	}

	c.JSON(http.StatusOK, api.SubmitResp{ID: id, Category: category, Confidence: confidence})
}

func (h *handlers) ListReports(c *gin.Context) {
	reports, err := listReports(h.db, c.GetInt64("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResp{Error: "failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, api.ReportListResp{Reports: reports})
}

func (h *handlers) ReportImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	image, err := getReportImage(h.db, id)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", image)
}

func (h *handlers) ListRewards(c *gin.Context) {
	rewards, err := listRewards(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResp{Error: "failed to list rewards"})
		return
	}
	c.JSON(http.StatusOK, api.RewardListResp{Rewards: rewards})
}

func (h *handlers) MyRewards(c *gin.Context) {
	rewards, err := myRewards(h.db, c.GetInt64("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResp{Error: "failed to list rewards"})
		return
	}
	c.JSON(http.StatusOK, api.RewardListResp{Rewards: rewards})
}

func (h *handlers) BuyReward(c *gin.Context) {
	var args api.BuyRewardArgs
	if err := c.BindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResp{Error: "could not read JSON input"})
		return
	}

	remaining, err := buyReward(h.db, c.GetInt64("user_id"), args.RewardID)
	if errors.Is(err, errInsufficientPoints) {
		c.JSON(http.StatusOK, api.BuyRewardResp{Success: false, RemainingPoints: remaining, Message: "not enough points"})
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, api.ErrorResp{Error: "no such reward"})
		return
	}
	if err != nil {
		log.Errorf("Failed to buy reward: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResp{Error: "purchase failed"})
		return
	}
	c.JSON(http.StatusOK, api.BuyRewardResp{Success: true, RemainingPoints: remaining})
}

func (h *handlers) PushToken(c *gin.Context) {
	var args api.PushTokenArgs
	if err := c.BindJSON(&args); err != nil || args.Token == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResp{Error: "token is required"})
		return
	}
	if err := savePushToken(h.db, c.GetInt64("user_id"), args.Token); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResp{Error: "failed to save push token"})
		return
	}
	c.JSON(http.StatusOK, api.MessageResp{Message: "saved"})
}
