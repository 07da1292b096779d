package main

import (
	"log"
	"os"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/storage/database"
	sqlxrepos "github.com/swaaagray/saoms/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	workDir, err := os.Getwd()
	errAndDie(err)
	conf := core.NewConfig(workDir)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:          db,
		usrRepo:     sqlxrepos.NewUserRepository(db),
		academicSvc: academic.NewService(sqlxrepos.NewAcademicRepository(db), core.StdLogger{Std: logger}),
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
