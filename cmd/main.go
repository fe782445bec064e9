package main

import (
	"fmt"
	"os"
	"time"

	"shopcrm/internal/catalog"
	"shopcrm/internal/handler"
	custommw "shopcrm/internal/middleware"
	"shopcrm/internal/model"
	"shopcrm/internal/notify"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/config"
	"shopcrm/pkg/database"
	"shopcrm/pkg/jwtutil"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	conf, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", conf.LogConfig()...)

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	err = database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.Customer{},
		&model.Vehicle{},
		&model.Estimate{},
		&model.WorkOrder{},
		&model.LineItem{},
		&model.Part{},
		&model.Invoice{},
		&model.Appointment{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Initialize JWT utility
	jwtutil.Initialize(&conf.JWT)

	// Tenant cache is optional; without Redis the loader reads straight
	// from the database
	var cache *redis.Client
	if conf.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		log.Info("Tenant cache enabled")
	}

	resolver := tenant.NewResolver(conf.Tenancy.PreviewSuffixes)
	loader := tenant.NewLoader(db, cache, conf.Tenancy.CacheTTL)
	makes := catalog.NewMakesCache(nil, 24*time.Hour)
	notifier := notify.NewLogNotifier()

	tenantHandler := handler.NewTenantHandler(loader)
	vehicleHandler := handler.NewVehicleHandler(makes, notifier)
	estimateHandler := handler.NewEstimateHandler(notifier)
	workOrderHandler := handler.NewWorkOrderHandler(notifier)
	partHandler := handler.NewPartHandler()
	invoiceHandler := handler.NewInvoiceHandler()
	appointmentHandler := handler.NewAppointmentHandler(notifier)
	reportHandler := handler.NewReportHandler()

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply middleware
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(conf.Server.RateLimit))))
	e.Use(custommw.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())
	e.Use(custommw.TenantMiddleware(resolver, loader, conf.IsDevelopment()))

	// Public routes
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/auth/register", handler.Register)
	e.POST("/auth/login", handler.Login)
	e.GET("/auth/profile", handler.GetProfile, custommw.AuthMiddleware)
	e.POST("/tenants/signup", tenantHandler.Signup)
	e.GET("/api/tenant", tenantHandler.CurrentTenant)

	// Tenant-scoped routes - require authentication and tenant membership
	api := e.Group("/api", custommw.AuthMiddleware, custommw.RequireTenant)

	api.PUT("/tenant/settings", tenantHandler.UpdateSettings, custommw.RequireAdminRole)

	api.GET("/customers", handler.ListCustomers)
	api.GET("/customers/export", handler.ExportCustomers)
	api.GET("/customers/:id", handler.GetCustomer)
	api.POST("/customers", handler.CreateCustomer, custommw.RequireWriteRole)
	api.PUT("/customers/:id", handler.UpdateCustomer, custommw.RequireWriteRole)
	api.POST("/customers/import", handler.ImportCustomers, custommw.RequireWriteRole)

	api.GET("/vehicles", vehicleHandler.ListVehicles)
	api.GET("/vehicles/makes", vehicleHandler.ListMakes)
	api.GET("/vehicles/export", vehicleHandler.ExportVehicles)
	api.GET("/vehicles/:id", vehicleHandler.GetVehicle)
	api.POST("/vehicles", vehicleHandler.CreateVehicle, custommw.RequireWriteRole)
	api.PUT("/vehicles/:id", vehicleHandler.UpdateVehicle, custommw.RequireWriteRole)
	api.POST("/vehicles/:id/remind", vehicleHandler.SendMaintenanceReminder, custommw.RequireWriteRole)
	api.POST("/vehicles/import", vehicleHandler.ImportVehicles, custommw.RequireWriteRole)

	api.GET("/estimates", estimateHandler.ListEstimates)
	api.GET("/estimates/:id", estimateHandler.GetEstimate)
	api.POST("/estimates", estimateHandler.CreateEstimate, custommw.RequireWriteRole)
	api.PUT("/estimates/:id", estimateHandler.UpdateEstimate, custommw.RequireWriteRole)
	api.POST("/estimates/:id/send", estimateHandler.SendEstimate, custommw.RequireWriteRole)
	api.POST("/estimates/:id/status", estimateHandler.UpdateEstimateStatus, custommw.RequireWriteRole)
	api.POST("/estimates/:id/convert", estimateHandler.ConvertEstimate, custommw.RequireWriteRole)
	api.DELETE("/estimates/:id", estimateHandler.DeleteEstimate, custommw.RequireWriteRole)

	api.GET("/work-orders", workOrderHandler.ListWorkOrders)
	api.GET("/work-orders/export", workOrderHandler.ExportWorkOrders)
	api.GET("/work-orders/:id", workOrderHandler.GetWorkOrder)
	api.POST("/work-orders", workOrderHandler.CreateWorkOrder, custommw.RequireWriteRole)
	api.PUT("/work-orders/:id", workOrderHandler.UpdateWorkOrder, custommw.RequireWriteRole)
	api.POST("/work-orders/:id/status", workOrderHandler.UpdateWorkOrderStatus, custommw.RequireWriteRole)

	api.GET("/parts", partHandler.ListParts)
	api.GET("/parts/:id", partHandler.GetPart)
	api.POST("/parts", partHandler.CreatePart, custommw.RequireWriteRole)
	api.PUT("/parts/:id", partHandler.UpdatePart, custommw.RequireWriteRole)
	api.POST("/parts/:id/adjust-stock", partHandler.AdjustStock, custommw.RequireWriteRole)
	api.DELETE("/parts/:id", partHandler.DeletePart, custommw.RequireWriteRole)

	api.GET("/invoices", invoiceHandler.ListInvoices)
	api.GET("/invoices/:id", invoiceHandler.GetInvoice)
	api.POST("/invoices", invoiceHandler.CreateInvoice, custommw.RequireWriteRole)
	api.POST("/invoices/:id/finalize", invoiceHandler.FinalizeInvoice, custommw.RequireWriteRole)
	api.POST("/invoices/:id/pay", invoiceHandler.MarkInvoicePaid, custommw.RequireWriteRole)
	api.DELETE("/invoices/:id", invoiceHandler.DeleteInvoice, custommw.RequireWriteRole)

	api.GET("/appointments", appointmentHandler.ListAppointments)
	api.GET("/appointments/:id", appointmentHandler.GetAppointment)
	api.POST("/appointments", appointmentHandler.CreateAppointment, custommw.RequireWriteRole)
	api.PUT("/appointments/:id", appointmentHandler.UpdateAppointment, custommw.RequireWriteRole)
	api.POST("/appointments/:id/status", appointmentHandler.UpdateAppointmentStatus, custommw.RequireWriteRole)
	api.POST("/appointments/:id/remind", appointmentHandler.SendAppointmentReminder, custommw.RequireWriteRole)
	api.DELETE("/appointments/:id", appointmentHandler.DeleteAppointment, custommw.RequireWriteRole)

	api.GET("/reports/summary", reportHandler.ShopSummary)
	api.GET("/reports/revenue", reportHandler.RevenueReport)
	api.GET("/reports/maintenance", reportHandler.MaintenanceReport)

	// Start server
	log.Info("Starting " + conf.ServiceName + " on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
