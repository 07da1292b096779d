package main

import (
	"context"
	"fmt"
)

// archiveNow runs the expired-term sweep without waiting for the next login.
func (cli *commandLine) archiveNow() error {
	results, err := cli.academicSvc.ArchiveExpired(context.Background())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No expired academic years found.")
		return nil
	}
	for _, res := range results {
		fmt.Printf(
			"Archived %s: %d semesters, %d organizations reset, %d councils reset, %d roster rows deleted, %d documents deleted\n",
			res.SchoolYear, res.SemestersArchived, res.OrganizationsReset, res.CouncilsReset,
			res.StudentRowsDeleted, res.DocumentsDeleted,
		)
	}
	return nil
}
