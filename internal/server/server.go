package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/lifemate/internal/advisor"
	"github.com/dukerupert/lifemate/internal/backup"
	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/geo"
	"github.com/dukerupert/lifemate/internal/handler"
	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/middleware"
	"github.com/dukerupert/lifemate/internal/notify"
	"github.com/dukerupert/lifemate/internal/push"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/voice"
	ws "github.com/dukerupert/lifemate/internal/websocket"
)

// Options carries the settings the server needs from the configuration.
type Options struct {
	Location       *time.Location
	AllowedOrigins []string
	// DefaultPoint answers location-based requests that carry no coordinates.
	DefaultPoint   *geo.Point
	NotifyInterval time.Duration
	RateLimit      int
	RateWindow     time.Duration
	Push           push.Config
	Backup         backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	catalogH      *handler.CatalogHandler
	settingsH     *handler.SettingsHandler
	shoppingH     *handler.ShoppingHandler
	milkH         *handler.MilkHandler
	journalH      *handler.JournalHandler
	attendanceH   *handler.AttendanceHandler
	notificationH *handler.NotificationHandler
	pushH         *handler.PushHandler
	advisorH      *handler.AdvisorHandler
	backupH       *handler.BackupHandler

	notificationLog *store.NotificationLogStore
	scheduler       *notify.Scheduler
	backupManager   *backup.Manager
	rateLimiter     *middleware.RateLimiter
	opts            Options
	logger          *slog.Logger
}

func New(db *sql.DB, adv *advisor.Advisor, opts Options, logger *slog.Logger) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}

	hub := ws.NewHub(logger)
	kvs := kv.New(db, logger.With("component", "kv"))
	ids := idgen.New()
	cat := catalog.Default()

	prefs := store.NewPreferenceStore(kvs)
	products := store.NewProductStore(kvs, ids, cat)
	lists := store.NewShoppingListStore(kvs, ids)
	vendors := store.NewMilkVendorStore(kvs, ids)
	journal := store.NewJournalStore(kvs, ids, opts.Location)
	att := store.NewAttendanceStore(kvs)
	history := store.NewHistoryStore(kvs, ids)
	pushStore := store.NewPushStore(kvs, ids)
	notificationLog := store.NewNotificationLogStore(db)

	// Notifications fan out to push subscribers and open sessions.
	pushSvc := push.NewService(opts.Push)
	notifier := notify.Multi{
		push.NewNotifier(pushSvc, pushStore, logger),
		hub,
	}
	dispatcher := notify.NewDispatcher(notifier, notificationLog, logger)
	scheduler := notify.NewScheduler(
		notify.NewDailyGate(kvs, prefs, dispatcher),
		notify.NewReminders(journal, prefs, dispatcher),
		opts.NotifyInterval,
		opts.Location,
		logger,
	)

	backupMgr := backup.NewManager(opts.Backup, kvs, ids, logger, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	})

	return &Server{
		db:              db,
		hub:             hub,
		catalogH:        handler.NewCatalogHandler(cat, products, prefs, hub),
		settingsH:       handler.NewSettingsHandler(prefs, hub),
		shoppingH:       handler.NewShoppingHandler(lists, products, voice.NewParser(cat.Units), prefs, hub, logger.With("component", "shopping")),
		milkH:           handler.NewMilkHandler(vendors, hub),
		journalH:        handler.NewJournalHandler(journal, hub),
		attendanceH:     handler.NewAttendanceHandler(att, history, hub, opts.Location),
		notificationH:   handler.NewNotificationHandler(scheduler, notificationLog, logger.With("component", "notification")),
		pushH:           handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		advisorH:        handler.NewAdvisorHandler(adv, cat, geo.NewLocator(opts.DefaultPoint), prefs, logger.With("component", "advisor_handler")),
		backupH:         handler.NewBackupHandler(backupMgr, logger.With("component", "backup_handler")),
		notificationLog: notificationLog,
		scheduler:       scheduler,
		backupManager:   backupMgr,
		rateLimiter:     middleware.NewRateLimiter(),
		opts:            opts,
		logger:          logger,
	}
}

// Scheduler returns the notification scheduler for the serve loop.
func (s *Server) Scheduler() *notify.Scheduler {
	return s.scheduler
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// NotificationLog returns the notification log for pruning.
func (s *Server) NotificationLog() *store.NotificationLogStore {
	return s.notificationLog
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	s.registerRoutes(mux)

	return middleware.Chain(mux,
		middleware.RequestLogger(s.logger.With("component", "http")),
		middleware.Recoverer(s.logger.With("component", "http")),
	)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited limits calls that reach the completion service, per client IP.
func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.opts.RateLimit, s.opts.RateWindow)(h)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Reference data and preferences
	mux.HandleFunc("GET /api/languages", s.catalogH.Languages)
	mux.HandleFunc("GET /api/language", s.settingsH.GetLanguage)
	mux.HandleFunc("PUT /api/language", s.settingsH.UpdateLanguage)
	mux.HandleFunc("GET /api/catalog/categories", s.catalogH.Categories)
	mux.HandleFunc("GET /api/catalog/units", s.catalogH.Units)
	mux.HandleFunc("GET /api/catalog/zodiac", s.catalogH.Zodiac)
	mux.HandleFunc("GET /api/products", s.catalogH.Products)
	mux.HandleFunc("POST /api/products", s.catalogH.CreateProduct)

	// Shopping lists
	mux.HandleFunc("GET /api/lists", s.shoppingH.List)
	mux.HandleFunc("POST /api/lists", s.shoppingH.Create)
	mux.HandleFunc("PUT /api/lists/{id}", s.shoppingH.Update)
	mux.HandleFunc("DELETE /api/lists/{id}", s.shoppingH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/duplicate", s.shoppingH.Duplicate)
	mux.HandleFunc("POST /api/lists/{id}/items", s.shoppingH.AddItem)
	mux.HandleFunc("PUT /api/lists/{id}/items/{item_id}", s.shoppingH.UpdateItem)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{item_id}", s.shoppingH.DeleteItem)
	mux.HandleFunc("POST /api/lists/{id}/voice", s.shoppingH.Voice)
	mux.HandleFunc("POST /api/expenses", s.shoppingH.SaveExpenses)

	// Milk ledger
	mux.HandleFunc("GET /api/vendors", s.milkH.List)
	mux.HandleFunc("POST /api/vendors", s.milkH.Create)
	mux.HandleFunc("DELETE /api/vendors/{id}", s.milkH.Delete)
	mux.HandleFunc("POST /api/vendors/{id}/records", s.milkH.AddRecord)
	mux.HandleFunc("DELETE /api/vendors/{id}/records/{record_id}", s.milkH.DeleteRecord)
	mux.HandleFunc("GET /api/vendors/{id}/totals", s.milkH.Totals)

	// Journal
	mux.HandleFunc("GET /api/journal", s.journalH.List)
	mux.HandleFunc("POST /api/journal", s.journalH.Create)
	mux.HandleFunc("PUT /api/journal/{id}", s.journalH.Update)
	mux.HandleFunc("DELETE /api/journal/{id}", s.journalH.Delete)

	// Attendance and payroll
	mux.HandleFunc("GET /api/attendance", s.attendanceH.Month)
	mux.HandleFunc("POST /api/attendance/{date}/toggle", s.attendanceH.Toggle)
	mux.HandleFunc("PUT /api/attendance/{date}", s.attendanceH.UpdateDay)
	mux.HandleFunc("GET /api/attendance/settings", s.attendanceH.GetSettings)
	mux.HandleFunc("PUT /api/attendance/settings", s.attendanceH.UpdateSettings)
	mux.HandleFunc("GET /api/attendance/history", s.attendanceH.ListHistory)
	mux.HandleFunc("POST /api/attendance/history", s.attendanceH.SaveHistory)
	mux.HandleFunc("DELETE /api/attendance/history/{id}", s.attendanceH.DeleteHistory)

	// Notifications
	mux.HandleFunc("GET /api/notifications/permission", s.settingsH.GetPermission)
	mux.HandleFunc("PUT /api/notifications/permission", s.settingsH.UpdatePermission)
	mux.HandleFunc("POST /api/notifications/check", s.notificationH.Check)
	mux.HandleFunc("GET /api/notifications/log", s.notificationH.Log)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)

	// Advisory views
	mux.Handle("GET /api/horoscope/{sign}", s.rateLimited(s.advisorH.Horoscope))
	mux.Handle("GET /api/weather", s.rateLimited(s.advisorH.Weather))
	mux.Handle("GET /api/bazaar-rates", s.rateLimited(s.advisorH.BazaarRates))
	mux.Handle("POST /api/remedies", s.rateLimited(s.advisorH.Remedies))
	mux.HandleFunc("GET /api/health-tip", s.advisorH.HealthTip)
	mux.HandleFunc("POST /api/calculator", handler.Calculate)

	// Backups
	mux.HandleFunc("GET /api/backup/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backup/run", s.backupH.Run)
	mux.HandleFunc("GET /api/backup/list", s.backupH.List)
	mux.HandleFunc("GET /api/backup/export", s.backupH.Export)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.opts.AllowedOrigins, s.logger.With("component", "websocket")))
}
