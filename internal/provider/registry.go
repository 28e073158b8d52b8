package provider

import (
	"sort"

	"github.com/datner/renu-sub001/breaker"
	"github.com/datner/renu-sub001/internal/domain"
	"github.com/datner/renu-sub001/xerrors"
)

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config 注册表配置
type Config struct {
	// Breaker 所有供应商共用的熔断器基准配置
	// Name 字段会被各供应商标签覆盖
	Breaker breaker.Config `json:"breaker" yaml:"breaker" mapstructure:"breaker"`

	// Overrides 按供应商标签覆盖熔断器配置（可选）
	Overrides map[string]breaker.Config `json:"overrides" yaml:"overrides" mapstructure:"overrides"`
}

// Bindings 供应商实现绑定
// 注册表要求两张表对各自的标签全集完整覆盖。
type Bindings struct {
	Clearing   map[domain.ClearingTag]Clearing
	Management map[domain.ManagementTag]Management
}

// ========================================
// 注册表 (Registry)
// ========================================

// Registry 闭合供应商注册表
//
// 构造后不可变：每个已知标签映射到一个实现和一个专属熔断器。
type Registry struct {
	clearing   map[domain.ClearingTag]Clearing
	management map[domain.ManagementTag]Management
	breakers   map[string]breaker.Breaker
}

// NewRegistry 创建注册表
//
// 任何已知标签缺少绑定、或绑定实现自报的标签与注册键不一致，
// 构造立即失败。
func NewRegistry(cfg *Config, bindings Bindings, opts ...Option) (*Registry, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	opt.applyDefaults()

	r := &Registry{
		clearing:   make(map[domain.ClearingTag]Clearing, len(domain.AllClearingTags())),
		management: make(map[domain.ManagementTag]Management, len(domain.AllManagementTags())),
		breakers:   make(map[string]breaker.Breaker),
	}

	for _, tag := range domain.AllClearingTags() {
		impl, ok := bindings.Clearing[tag]
		if !ok || impl == nil {
			return nil, xerrors.Wrapf(ErrBindingMissing, "clearing tag %s", tag)
		}
		if impl.Tag() != tag {
			return nil, xerrors.Wrapf(ErrBindingTagMismatch, "clearing tag %s bound to implementation reporting %s", tag, impl.Tag())
		}
		brk, err := newProviderBreaker(cfg, string(tag), &opt)
		if err != nil {
			return nil, err
		}
		r.clearing[tag] = impl
		r.breakers[string(tag)] = brk
	}

	for _, tag := range domain.AllManagementTags() {
		impl, ok := bindings.Management[tag]
		if !ok || impl == nil {
			return nil, xerrors.Wrapf(ErrBindingMissing, "management tag %s", tag)
		}
		if impl.Tag() != tag {
			return nil, xerrors.Wrapf(ErrBindingTagMismatch, "management tag %s bound to implementation reporting %s", tag, impl.Tag())
		}
		brk, err := newProviderBreaker(cfg, string(tag), &opt)
		if err != nil {
			return nil, err
		}
		r.management[tag] = impl
		r.breakers[string(tag)] = brk
	}

	return r, nil
}

// newProviderBreaker 为单个供应商创建熔断器，支持按标签覆盖配置
func newProviderBreaker(cfg *Config, name string, opt *options) (breaker.Breaker, error) {
	bcfg := cfg.Breaker
	if override, ok := cfg.Overrides[name]; ok {
		bcfg = override
	}
	bcfg.Name = name

	bopts := []breaker.Option{breaker.WithLogger(opt.logger)}
	if opt.meter != nil {
		bopts = append(bopts, breaker.WithMeter(opt.meter))
	}
	if opt.clock != nil {
		bopts = append(bopts, breaker.WithClock(opt.clock))
	}
	return breaker.New(&bcfg, bopts...)
}

// Clearing 返回标签对应的清算实现
// 注册表闭合，已知标签必然命中；未知标签返回 false。
func (r *Registry) Clearing(tag domain.ClearingTag) (Clearing, bool) {
	impl, ok := r.clearing[tag]
	return impl, ok
}

// Management 返回标签对应的管理端实现
func (r *Registry) Management(tag domain.ManagementTag) (Management, bool) {
	impl, ok := r.management[tag]
	return impl, ok
}

// Breaker 返回供应商专属熔断器
func (r *Registry) Breaker(name string) (breaker.Breaker, bool) {
	brk, ok := r.breakers[name]
	return brk, ok
}

// BreakerStates 返回全部熔断器状态快照，按名称排序
// 健康检查端点用它暴露每个供应商的熔断状态。
func (r *Registry) BreakerStates() map[string]breaker.State {
	states := make(map[string]breaker.State, len(r.breakers))
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		states[name] = r.breakers[name].State()
	}
	return states
}
