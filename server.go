package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/baburtravels/agency_backend/config"
	"bitbucket.org/baburtravels/agency_backend/middlewares"
	"bitbucket.org/baburtravels/agency_backend/models"
	"bitbucket.org/baburtravels/agency_backend/utils"
	"bitbucket.org/baburtravels/agency_backend/workflow"
	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPort = "8080"

// settlementMutex serializes settlement mutations across instances.
// Redis lock is a best-effort optimization; reliability must not depend on
// Redis: posting is also serialized via MySQL advisory locks inside the
// workflow package.
func settlementMutex(c *gin.Context, logger *logrus.Logger, key string) func() {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}
	}
	lock, err := locker.Obtain(c.Request.Context(), "settlement:"+key, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if err != nil {
		if !errors.Is(err, redislock.ErrNotObtained) {
			config.LogError(logger, "server.go", "settlementMutex", "locker.Obtain", key, err)
		}
		return func() {}
	}
	return func() { _ = lock.Release(config.GetRedisContext()) }
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound), errors.Is(err, utils.ErrMissingEntity):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrInsufficientFunds),
		errors.Is(err, utils.ErrInvalidAmount),
		errors.Is(err, utils.ErrExceedsOriginal),
		errors.Is(err, utils.ErrAlreadyCancelled),
		errors.Is(err, utils.ErrInvalidPaymentMode),
		errors.Is(err, utils.ErrInvalidTransactionType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(httpStatus(err), gin.H{"error": err.Error()})
}

func parseKind(c *gin.Context) (models.BookingKind, bool) {
	kind := models.BookingKind(c.Param("kind"))
	if !kind.Valid() {
		abortWithError(c, utils.ErrInvalidTransactionType)
		return "", false
	}
	return kind, true
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortWithError(c, utils.ErrorRecordNotFound)
		return 0, false
	}
	return id, true
}

func parseDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var fromDate, toDate *time.Time
	if v := c.Query("from_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, err
		}
		fromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, err
		}
		toDate = &t
	}
	return fromDate, toDate, nil
}

type bookingRequest struct {
	CustomerID          int             `json:"customer_id" binding:"required"`
	AgentID             *int            `json:"agent_id"`
	PartnerID           *int            `json:"partner_id"`
	TravelLocationID    *int            `json:"travel_location_id"`
	PassengerID         *int            `json:"passenger_id"`
	ParticularID        *int            `json:"particular_id"`
	TicketTypeID        *int            `json:"ticket_type_id"`
	VisaTypeID          *int            `json:"visa_type_id"`
	Description         string          `json:"description"`
	CustomerCharge      decimal.Decimal `json:"customer_charge"`
	AgentPaid           decimal.Decimal `json:"agent_paid"`
	CustomerPaymentMode string          `json:"customer_payment_mode"`
	AgentPaymentMode    string          `json:"agent_payment_mode"`
	Date                string          `json:"date"`
}

func (req *bookingRequest) toInput(kind models.BookingKind) (workflow.BookingInput, error) {
	input := workflow.BookingInput{
		Kind:                kind,
		CustomerID:          req.CustomerID,
		AgentID:             req.AgentID,
		PartnerID:           req.PartnerID,
		TravelLocationID:    req.TravelLocationID,
		PassengerID:         req.PassengerID,
		ParticularID:        req.ParticularID,
		TicketTypeID:        req.TicketTypeID,
		VisaTypeID:          req.VisaTypeID,
		Description:         req.Description,
		CustomerCharge:      req.CustomerCharge,
		AgentPaid:           req.AgentPaid,
		CustomerPaymentMode: models.PaymentMode(req.CustomerPaymentMode),
		AgentPaymentMode:    models.PaymentMode(req.AgentPaymentMode),
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return input, err
		}
		input.Date = date
	}
	return input, nil
}

type cancelRequest struct {
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	RefundMode     string          `json:"refund_mode"`
	RecoveryAmount decimal.Decimal `json:"recovery_amount"`
	RecoveryMode   string          `json:"recovery_mode"`
}

func bookBookingHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		var req bookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input, err := req.toInput(kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		release := settlementMutex(c, logger, string(kind))
		defer release()

		actor := middlewares.ActorFromContext(c.Request.Context())
		var booking *models.Booking
		err = config.GetDB().Transaction(func(tx *gorm.DB) error {
			var txErr error
			booking, txErr = workflow.BookBooking(tx, logger, actor, input)
			return txErr
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, booking)
	}
}

func listBookingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		var status *models.BookingStatus
		if v := c.Query("status"); v != "" {
			s := models.BookingStatus(v)
			status = &s
		}
		fromDate, toDate, err := parseDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		bookings, err := models.GetBookings(config.GetDB(), kind, status, fromDate, toDate)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookings)
	}
}

func getBookingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		booking, err := models.GetBooking(config.GetDB(), kind, id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

func cancelBookingHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req cancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		release := settlementMutex(c, logger, string(kind))
		defer release()

		actor := middlewares.ActorFromContext(c.Request.Context())
		var booking *models.Booking
		err := config.GetDB().Transaction(func(tx *gorm.DB) error {
			var txErr error
			booking, txErr = workflow.CancelBooking(tx, logger, actor, kind, id,
				req.RefundAmount, models.PaymentMode(req.RefundMode),
				req.RecoveryAmount, models.PaymentMode(req.RecoveryMode))
			return txErr
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

// updateBookingHandler routes on the record's status: booked records accept
// a full rewrite, cancelled records only a refund/recovery change.
func updateBookingHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		existing, err := models.GetBooking(config.GetDB(), kind, id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		release := settlementMutex(c, logger, string(kind))
		defer release()
		actor := middlewares.ActorFromContext(c.Request.Context())

		if existing.Status == models.BookingStatusCancelled {
			var req cancelRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var booking *models.Booking
			err := config.GetDB().Transaction(func(tx *gorm.DB) error {
				var txErr error
				booking, txErr = workflow.UpdateCancelledBooking(tx, logger, actor, kind, id,
					req.RefundAmount, models.PaymentMode(req.RefundMode),
					req.RecoveryAmount, models.PaymentMode(req.RecoveryMode))
				return txErr
			})
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, booking)
			return
		}

		var req bookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input, err := req.toInput(kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var booking *models.Booking
		err = config.GetDB().Transaction(func(tx *gorm.DB) error {
			var txErr error
			booking, txErr = workflow.UpdateBooking(tx, logger, actor, kind, id, input)
			return txErr
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

func deleteBookingHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		release := settlementMutex(c, logger, string(kind))
		defer release()

		actor := middlewares.ActorFromContext(c.Request.Context())
		err := config.GetDB().Transaction(func(tx *gorm.DB) error {
			return workflow.DeleteBooking(tx, logger, actor, kind, id)
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type transactionRequest struct {
	TransactionType   string          `json:"transaction_type" binding:"required"`
	EntityType        string          `json:"entity_type"`
	EntityID          *int            `json:"entity_id"`
	PayType           string          `json:"pay_type"`
	Mode              string          `json:"mode"`
	Amount            decimal.Decimal `json:"amount"`
	Date              string          `json:"date"`
	Description       string          `json:"description"`
	ParticularID      *int            `json:"particular_id"`
	RefundDirection   string          `json:"refund_direction"`
	DeductFromAccount bool            `json:"deduct_from_account"`
	CreditToAccount   bool            `json:"credit_to_account"`
	FromEntityType    string          `json:"from_entity_type"`
	FromEntityID      *int            `json:"from_entity_id"`
	ToEntityType      string          `json:"to_entity_type"`
	ToEntityID        *int            `json:"to_entity_id"`
	ModeForFrom       string          `json:"mode_for_from"`
	ModeForTo         string          `json:"mode_for_to"`
}

func (req *transactionRequest) toInput() (workflow.TransactionInput, error) {
	input := workflow.TransactionInput{
		TransactionType:   models.TransactionType(req.TransactionType),
		EntityType:        models.EntityKind(req.EntityType),
		EntityID:          req.EntityID,
		PayType:           models.PayType(req.PayType),
		Mode:              models.PaymentMode(req.Mode),
		Amount:            req.Amount,
		Description:       req.Description,
		ParticularID:      req.ParticularID,
		RefundDirection:   models.RefundDirection(req.RefundDirection),
		DeductFromAccount: req.DeductFromAccount,
		CreditToAccount:   req.CreditToAccount,
		FromEntityType:    models.EntityKind(req.FromEntityType),
		FromEntityID:      req.FromEntityID,
		ToEntityType:      models.EntityKind(req.ToEntityType),
		ToEntityID:        req.ToEntityID,
		ModeForFrom:       models.PaymentMode(req.ModeForFrom),
		ModeForTo:         models.PaymentMode(req.ModeForTo),
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return input, err
		}
		input.Date = date
	}
	return input, nil
}

func createTransactionHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input, err := req.toInput()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		release := settlementMutex(c, logger, req.TransactionType)
		defer release()

		actor := middlewares.ActorFromContext(c.Request.Context())
		var transaction *models.Transaction
		err = config.GetDB().Transaction(func(tx *gorm.DB) error {
			var txErr error
			transaction, txErr = workflow.CreateTransaction(tx, logger, actor, input)
			return txErr
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	}
}

func listTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		transactionType := models.TransactionType(c.Query("type"))
		if !transactionType.Valid() {
			abortWithError(c, utils.ErrInvalidTransactionType)
			return
		}
		fromDate, toDate, err := parseDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		transactions, err := models.GetTransactions(config.GetDB(), transactionType, fromDate, toDate)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

func getTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		transaction, err := models.GetTransaction(config.GetDB(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

func updateTransactionHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req transactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input, err := req.toInput()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		release := settlementMutex(c, logger, req.TransactionType)
		defer release()

		actor := middlewares.ActorFromContext(c.Request.Context())
		var transaction *models.Transaction
		err = config.GetDB().Transaction(func(tx *gorm.DB) error {
			var txErr error
			transaction, txErr = workflow.UpdateTransaction(tx, logger, actor, id, input)
			return txErr
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

func deleteTransactionHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		release := settlementMutex(c, logger, "transaction")
		defer release()

		actor := middlewares.ActorFromContext(c.Request.Context())
		err := config.GetDB().Transaction(func(tx *gorm.DB) error {
			return workflow.DeleteTransaction(tx, logger, actor, id)
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func companyBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := models.PaymentMode(c.Param("mode"))
		if !mode.CompanyMode() {
			abortWithError(c, utils.ErrInvalidPaymentMode)
			return
		}
		balance, err := models.CompanyBalance(config.GetDB(), mode)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mode": mode, "balance": balance})
	}
}

func entityBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := models.EntityKind(c.Param("kind"))
		if !kind.Valid() || kind == models.EntityKindOthers {
			abortWithError(c, utils.ErrMissingEntity)
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		balances, err := workflow.GetEntityBalances(config.GetDB(), workflow.EntityRef{Kind: kind, ID: id})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, balances)
	}
}

// refNoPreviewHandler shows the next number a booking kind or transaction
// type would receive. Purely informational; allocation happens inside the
// posting transaction under the ref-no lock.
func refNoPreviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := c.Param("scope")
		if kind := models.BookingKind(scope); kind.Valid() {
			refNo, err := models.NextBookingRefNo(config.GetDB(), kind)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"ref_no": refNo})
			return
		}
		if transactionType := models.TransactionType(scope); transactionType.Valid() {
			refNo, err := models.NextTransactionRefNo(config.GetDB(), transactionType)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"ref_no": refNo})
			return
		}
		abortWithError(c, utils.ErrInvalidTransactionType)
	}
}

type invoiceRequest struct {
	EntityType  string `json:"entity_type" binding:"required"`
	EntityID    int    `json:"entity_id" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req invoiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		periodStart, err := time.Parse("2006-01-02", req.PeriodStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		periodEnd, err := time.Parse("2006-01-02", req.PeriodEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var invoice models.Invoice
		err = config.GetDB().Transaction(func(tx *gorm.DB) error {
			number, txErr := models.NextInvoiceNumber(tx)
			if txErr != nil {
				return txErr
			}
			invoice = models.Invoice{
				InvoiceNumber: number,
				EntityType:    models.EntityKind(req.EntityType),
				EntityID:      req.EntityID,
				PeriodStart:   periodStart,
				PeriodEnd:     periodEnd,
				Status:        models.InvoiceStatusPending,
			}
			return tx.Create(&invoice).Error
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Actor")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.ActorMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/bookings/:kind", bookBookingHandler(logger))
	r.GET("/bookings/:kind", listBookingsHandler())
	r.GET("/bookings/:kind/:id", getBookingHandler())
	r.POST("/bookings/:kind/:id/cancel", cancelBookingHandler(logger))
	r.PATCH("/bookings/:kind/:id", updateBookingHandler(logger))
	r.DELETE("/bookings/:kind/:id", deleteBookingHandler(logger))

	r.POST("/transactions", createTransactionHandler(logger))
	r.GET("/transactions", listTransactionsHandler())
	r.GET("/transactions/:id", getTransactionHandler())
	r.PUT("/transactions/:id", updateTransactionHandler(logger))
	r.DELETE("/transactions/:id", deleteTransactionHandler(logger))

	r.GET("/balances/company/:mode", companyBalanceHandler())
	r.GET("/balances/:kind/:id", entityBalanceHandler())
	r.GET("/refno/:scope", refNoPreviewHandler())
	r.POST("/invoices", createInvoiceHandler())

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow disabling on startup
	// and running migrations as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.Migrate(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Session isolation READ COMMITTED: settlement correctness comes from
	// the advisory locks, not from repeatable-read snapshots.
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("shutdown error: " + err.Error())
	}
}
