package autoload

import (
	configx "github.com/tanpawarit/servicedesk/pkg/config"
	logx "github.com/tanpawarit/servicedesk/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
