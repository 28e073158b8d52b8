package config

import (
	"context"
	"fmt"
)

// New 创建配置加载器，不触发加载
func New(opts ...Option) (Loader, error) {
	return newLoader(opts...)
}

// MustLoad 一步创建并加载配置，失败时 panic
//
// 仅用于进程初始化阶段。
func MustLoad(opts ...Option) Loader {
	loader, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: create loader: %v", err))
	}
	if err := loader.Load(context.Background()); err != nil {
		panic(fmt.Sprintf("config: load: %v", err))
	}
	return loader
}
