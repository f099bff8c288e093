package main

import (
	"log"
	"os"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
	emailsvc "github.com/sudarshan-gautam/placement-tracking-app-sub003/services/email"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/storage/database"
	sqlxrepos "github.com/sudarshan-gautam/placement-tracking-app-sub003/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	usrRepo := sqlxrepos.NewUserRepository(db)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: usrRepo,
		usrSvc:  user.NewService(usrRepo, emailsvc.NewConsoleService(conf), conf),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
