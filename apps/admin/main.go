package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assessment"
	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/storage/flatfile"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up the flat-file store & services
	store := flatfile.NewStore(conf.DataDir)
	usrSvc := user.NewService(flatfile.NewUserRepository(store), store, emailsvc.NewConsoleService(conf), conf)
	modSvc := module.NewService(flatfile.NewModuleRepository(store), usrSvc)
	assSvc := assessment.NewService(flatfile.NewAssessmentRepository(store), modSvc)
	usrSvc.SetProjectionSyncer(modSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		usrSvc:   usrSvc,
		modSvc:   modSvc,
		assSvc:   assSvc,
		validate: validate,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
