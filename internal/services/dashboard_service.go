package services

import (
	"context"
	"log/slog"
	"sort"

	"promopulse/pkg/contracts/domain"
)

// DashboardService shapes KPI snapshots into role-specific views. The
// executive view carries headline numbers and trends; the manager view
// carries operational detail like stock alerts and the issue breakdown.
type DashboardService struct {
	data   *DataService
	kpis   *KPIService
	logger *slog.Logger
}

// ExecutiveDashboard is the headline view for leadership.
type ExecutiveDashboard struct {
	Dataset         *DatasetSummary      `json:"dataset"`
	TotalRevenue    float64              `json:"total_revenue"`
	GrossMargin     float64              `json:"gross_margin_pct"`
	Orders          int                  `json:"orders"`
	AvgOrderAED     float64              `json:"avg_order_value"`
	AvgDiscount     float64              `json:"avg_discount_pct"`
	StockoutRate    float64              `json:"stockout_rate"`
	ActiveCampaigns int                  `json:"active_campaigns"`
	CityMix         []domain.MixEntry    `json:"city_mix"`
	ChannelMix      []domain.MixEntry    `json:"channel_mix"`
	DailyRevenue    []domain.SeriesPoint `json:"daily_revenue"`
}

// ManagerDashboard is the operational view for category managers.
type ManagerDashboard struct {
	Dataset        *DatasetSummary        `json:"dataset"`
	CategoryMix    []domain.MixEntry      `json:"category_mix"`
	HourlyRevenue  []domain.SeriesPoint   `json:"hourly_revenue"`
	WeekdayRevenue []domain.SeriesPoint   `json:"weekday_revenue"`
	TopStores      []domain.RankedEntity  `json:"top_stores"`
	TopProducts    []domain.RankedEntity  `json:"top_products"`
	StockAlerts    []StockAlert           `json:"stock_alerts"`
	IssuesByRule   map[string]int         `json:"issues_by_rule"`
	Campaigns      []domain.Campaign      `json:"campaigns"`
}

// StockAlert is one SKU at or near stockout.
type StockAlert struct {
	ProductID    string             `json:"product_id"`
	StoreID      string             `json:"store_id"`
	Category     string             `json:"category,omitempty"`
	StockOnHand  int64              `json:"stock_on_hand"`
	ReorderPoint int64              `json:"reorder_point"`
	LeadTimeDays int                `json:"lead_time_days"`
	Status       domain.StockStatus `json:"status"`
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(data *DataService, kpis *KPIService, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		data:   data,
		kpis:   kpis,
		logger: logger.With(slog.String("component", "service.dashboard")),
	}
}

// Executive builds the executive view of the current dataset
func (s *DashboardService) Executive(ctx context.Context) (*ExecutiveDashboard, error) {
	summary, err := s.data.Summary(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.kpis.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return &ExecutiveDashboard{
		Dataset:         summary,
		TotalRevenue:    snapshot.TotalRevenue,
		GrossMargin:     snapshot.GrossMargin,
		Orders:          snapshot.Orders,
		AvgOrderAED:     snapshot.AvgOrderAED,
		AvgDiscount:     snapshot.AvgDiscount,
		StockoutRate:    snapshot.StockoutRate,
		ActiveCampaigns: snapshot.ActiveCampaigns,
		CityMix:         snapshot.CityMix,
		ChannelMix:      snapshot.ChannelMix,
		DailyRevenue:    snapshot.DailySeries,
	}, nil
}

// Manager builds the manager view of the current dataset
func (s *DashboardService) Manager(ctx context.Context) (*ManagerDashboard, error) {
	dataset, err := s.data.Current(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.data.Summary(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.kpis.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return &ManagerDashboard{
		Dataset:        summary,
		CategoryMix:    snapshot.CategoryMix,
		HourlyRevenue:  snapshot.HourlyLoad,
		WeekdayRevenue: snapshot.WeekdayLoad,
		TopStores:      snapshot.TopStores,
		TopProducts:    snapshot.TopProducts,
		StockAlerts:    stockAlerts(dataset.Inventory),
		IssuesByRule:   summary.IssuesByRule,
		Campaigns:      dataset.Campaigns,
	}, nil
}

// stockAlerts lists SKUs at or below their reorder point, most urgent first
func stockAlerts(inventory []domain.InventoryRecord) []StockAlert {
	alerts := make([]StockAlert, 0)
	for _, rec := range inventory {
		if rec.Status == domain.StockHealthy {
			continue
		}
		alerts = append(alerts, StockAlert{
			ProductID:    rec.ProductID,
			StoreID:      rec.StoreID,
			Category:     rec.Category,
			StockOnHand:  rec.StockOnHand,
			ReorderPoint: rec.ReorderPoint,
			LeadTimeDays: rec.LeadTimeDays,
			Status:       rec.Status,
		})
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].StockOnHand != alerts[j].StockOnHand {
			return alerts[i].StockOnHand < alerts[j].StockOnHand
		}
		if alerts[i].ProductID != alerts[j].ProductID {
			return alerts[i].ProductID < alerts[j].ProductID
		}
		return alerts[i].StoreID < alerts[j].StoreID
	})
	return alerts
}
