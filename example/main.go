package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/routine"
	"github.com/meikuraledutech/routine/memory"
	"github.com/meikuraledutech/routine/postgres"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Use postgres when DATABASE_URL is set, memory otherwise.
	var store routine.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// ── Start → Warm up → End ─────────────────────────────────────────
	start := routine.Node{ID: "start", Type: routine.NodeStart}
	start.Place(0, 0)
	warmup := routine.Node{ID: "warmup", Type: routine.NodeRoutineList,
		Data: routine.RoutineListData{Title: "Warm up", Items: []routine.RoutineListItem{}}}
	warmup.Place(1, 0)
	end := routine.Node{ID: "end", Type: routine.NodeEnd, Data: routine.EndData{WasSuccessful: true}}
	end.Place(2, 0)

	created, err := store.CreateRoutine(ctx, &routine.Routine{
		ID:    "morning",
		Nodes: []routine.Node{start, warmup, end},
		Links: []routine.Link{
			{FromID: "start", ToID: "warmup"},
			{FromID: "warmup", ToID: "end"},
		},
	})
	if err != nil {
		log.Fatalf("create routine: %v", err)
	}

	ed := routine.NewEditor(*created, routine.WithLogger(logger))
	fmt.Println("loaded:", ed.Status().Summary())

	// ── Split warmup → end with a new step ────────────────────────────
	var toEnd string
	for _, l := range ed.Links() {
		if l.FromID == "warmup" && l.ToID == "end" {
			toEnd = l.ID
		}
	}
	stretch, err := ed.InsertNodeOnLink(toEnd)
	if err != nil {
		log.Fatalf("insert: %v", err)
	}
	fmt.Printf("inserted %s at column %d\n", stretch.ID, *stretch.ColumnIndex)

	// ── Remove warm up; start is bridged to the new step ──────────────
	ed.DeleteNode("warmup")
	fmt.Println("after delete:", ed.Status().Summary())

	printJSON(ed.Changes())

	if err := ed.Save(ctx, store); err != nil {
		log.Fatalf("save: %v", err)
	}

	saved, err := store.GetRoutine(ctx, "morning")
	if err != nil {
		log.Fatalf("get routine: %v", err)
	}
	fmt.Println("\nroutine saved:")
	printJSON(saved)

	if err := store.DeleteRoutine(ctx, "morning"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nroutine deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
