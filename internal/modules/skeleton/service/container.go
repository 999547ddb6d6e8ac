package service

import (
	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/config"
	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/ruleengine"
)

// Dependencies 容器的外部依赖, 均为可选
type Dependencies struct {
	ItemResolver ItemResolver
	Logger       log.Logger
	// Metrics 为空时: 默认命名空间使用全局实例, 其他命名空间在全局 Registerer 上新建
	Metrics *metrics.SkeletonMetrics
}

// ServiceContainer 骨架服务容器 - 统一创建目录、规则引擎和各个服务
// 目的：替代全局单例, 测试之间不共享隐藏状态
type ServiceContainer struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Engine  *ruleengine.Engine
	Metrics *metrics.SkeletonMetrics

	CompatibilityService      *CompatibilityService
	SlotAssignmentService     *SlotAssignmentService
	AssemblyValidationService *AssemblyValidationService

	logger log.Logger
}

// NewServiceContainer 创建服务容器
// cfg 为 nil 时从环境变量加载; cfg.CatalogFile 非空时从 YAML 加载目录, 否则使用内置定义
func NewServiceContainer(cfg *config.Config, deps Dependencies) (*ServiceContainer, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	logger := deps.Logger
	if logger == nil {
		// 未注入日志器时按配置初始化全局日志器
		log.Init(cfg.SlogLevel(), cfg.Environment)
		logger = log.GetLogger()
	}
	m := deps.Metrics
	if m == nil {
		if cfg.MetricsNamespace == "" || cfg.MetricsNamespace == metrics.DefaultNamespace {
			m = metrics.DefaultSkeletonMetrics
		} else {
			m = metrics.NewSkeletonMetrics(cfg.MetricsNamespace)
		}
	}

	defs, err := loadDefinitions(cfg)
	if err != nil {
		logger.Error("failed to load catalog definitions", err, log.String("catalog_file", cfg.CatalogFile))
		return nil, err
	}

	c := &ServiceContainer{Config: cfg, Metrics: m, logger: logger.With("component", "skeleton_container")}

	// 初始化目录和规则引擎
	if c.Catalog, err = catalog.NewCatalog(defs, logger, m); err != nil {
		return nil, err
	}
	c.Engine = ruleengine.NewEngine(logger, m)

	// 初始化所有 Service
	c.CompatibilityService = NewCompatibilityService(c.Catalog, logger, m)
	c.SlotAssignmentService = NewSlotAssignmentService(c.Catalog, deps.ItemResolver, cfg.HistoryCapacity, logger, m)
	if c.AssemblyValidationService, err = NewAssemblyValidationService(c.Catalog, c.Engine, logger, m); err != nil {
		return nil, err
	}

	c.logger.Info("skeleton services ready", log.Any("config", cfg.LogFields()))
	return c, nil
}

// ReloadCatalog 在配置加载阶段重新定义目录, 同时清空兼容性缓存
// defs 为 nil 时恢复内置定义
func (c *ServiceContainer) ReloadCatalog(defs *catalog.Definitions) error {
	if err := c.Catalog.Reset(defs); err != nil {
		return err
	}
	c.CompatibilityService.ClearCache()
	return nil
}

func loadDefinitions(cfg *config.Config) (*catalog.Definitions, error) {
	if cfg.CatalogFile == "" {
		return catalog.DefaultDefinitions(), nil
	}
	return catalog.LoadDefinitionsFile(cfg.CatalogFile)
}
