package config

// Option 组件初始化选项函数
type Option func(*Options)

// Options 加载器选项
type Options struct {
	Name      string   // 配置文件名（不含扩展名）
	FileType  string   // 配置文件类型，默认 yaml
	Paths     []string // 搜索路径列表
	EnvPrefix string   // 环境变量前缀
}

// defaultOptions 返回默认选项（内部使用）
func defaultOptions() *Options {
	return &Options{
		Name:      "config",
		FileType:  "yaml",
		Paths:     []string{"."},
		EnvPrefix: "RENU",
	}
}

// WithConfigName 设置配置文件名（不含扩展名）
func WithConfigName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithFileType 设置配置文件类型（yaml|json|toml）
func WithFileType(t string) Option {
	return func(o *Options) {
		o.FileType = t
	}
}

// WithConfigPaths 设置配置文件搜索路径，覆盖默认路径
func WithConfigPaths(paths ...string) Option {
	return func(o *Options) {
		o.Paths = paths
	}
}

// WithEnvPrefix 设置环境变量前缀
//
// 例如前缀 RENU 时，RENU_SERVER_ADDR 覆盖 server.addr。
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) {
		o.EnvPrefix = prefix
	}
}
