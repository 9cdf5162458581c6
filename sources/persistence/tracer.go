package persistence

import (
	"fmt"
	"musegate/sources/tracing"
)

type gormtracer struct {
	logger *tracing.Logger
}

func (w *gormtracer) Printf(format string, args ...interface{}) {
	w.logger.D("Database trace", tracing.SqlQuery, fmt.Sprintf(format, args...))
}
