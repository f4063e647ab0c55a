// Package backend is the development stand-in for the SpotIt service. It
// implements the remote contract the client consumes (auth, reports,
// rewards) against MySQL, so the whole client stack can run locally.
package backend

import (
	"database/sql"
	"flag"
	"fmt"
	"time"

	"spotit/api"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	serverPort = flag.Int("port", 8080, "The port used by the service.")
)

func NewRouter(db *sql.DB) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &handlers{db: db}

	router.GET(api.EndPointHelp, h.Help)
	router.POST(api.EndPointLogin, h.Login)
	router.POST(api.EndPointRegister, h.Register)
	router.GET(api.EndPointRewards, h.ListRewards)
	router.GET("/uploads/:id", h.ReportImage)

	authed := router.Group("/", authMiddleware())
	authed.POST(api.EndPointReports, h.SubmitReport)
	authed.GET(api.EndPointReports, h.ListReports)
	authed.GET(api.EndPointMyRewards, h.MyRewards)
	authed.POST(api.EndPointBuyReward, h.BuyReward)
	authed.POST(api.EndPointPushToken, h.PushToken)

	return router
}

// StartService prepares the schema, seeds the reward catalogue and serves
// until the process dies.
func StartService(db *sql.DB) {
	log.Info("Starting the service...")
	if err := createTables(db); err != nil {
		log.Errorf("Failed to create tables: %v", err)
		return
	}
	if err := seedRewards(db); err != nil {
		log.Errorf("Failed to seed rewards: %v", err)
	}

	router := NewRouter(db)
	router.Run(fmt.Sprintf(":%d", *serverPort))
	log.Info("Finished the service. Should not ever being seen.")
}
