package modules

import (
	"github.com/openplanning/caseflow/modules/planning"
	"github.com/openplanning/caseflow/pkg/application"
)

var BuiltInModules = []application.Module{
	planning.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
