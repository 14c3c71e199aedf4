// Package autoload initializes the global logger from LOG_* env vars as a
// side effect of being imported.
package autoload

import (
	configx "github.com/nattavee/homecall/pkg/config"
	logx "github.com/nattavee/homecall/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
