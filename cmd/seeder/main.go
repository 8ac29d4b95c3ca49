package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/searchgate"
	"github.com/poiesic/searchgate/core"
)

var facts = []string{
	"The Legend of Zelda: Breath of the Wild was first released on March 3, 2017 for the Nintendo Switch and Wii U.",
	"The Legend of Zelda: Tears of the Kingdom launched on May 12, 2023 as the direct sequel to Breath of the Wild.",
	"The original Legend of Zelda debuted in Japan on February 21, 1986 for the Famicom Disk System.",
	"Super Mario Odyssey shipped on October 27, 2017 and sold over two million copies in three days.",
	"The Nintendo Switch console launched worldwide on March 3, 2017.",
	"Elden Ring, developed by FromSoftware, was released on February 25, 2022.",
	"Dark Souls first released in Japan in September 2011 and popularized the soulslike genre.",
	"Minecraft left beta and officially released on November 18, 2011.",
	"The first PlayStation console went on sale in Japan on December 3, 1994.",
	"Half-Life 2 was released by Valve on November 16, 2004.",
	"Portal 2 arrived on April 19, 2011 with a cooperative campaign.",
	"The Witcher 3: Wild Hunt launched on May 19, 2015 and won hundreds of game of the year awards.",
	"Red Dead Redemption 2 released on October 26, 2018 for PlayStation 4 and Xbox One.",
	"Hollow Knight was released by Team Cherry on February 24, 2017.",
	"Celeste launched on January 25, 2018 and was built in under a year for a game jam.",
	"Stardew Valley, made almost entirely by one developer, released on February 26, 2016.",
	"Doom, often credited with popularizing the first-person shooter, shipped on December 10, 1993.",
	"Tetris was created by Alexey Pajitnov in June 1984 in Moscow.",
	"Pac-Man first appeared in Japanese arcades on May 22, 1980.",
	"Pokemon Red and Green launched in Japan on February 27, 1996.",
	"Final Fantasy VII was released in Japan on January 31, 1997.",
	"Chrono Trigger shipped for the Super Famicom on March 11, 1995.",
	"Hades left early access and fully released on September 17, 2020.",
	"Baldur's Gate 3 exited early access on August 3, 2023.",
	"Grand Theft Auto V released on September 17, 2013 and remains one of the best selling games ever.",
	"The Elder Scrolls V: Skyrim launched on the memorable date of November 11, 2011.",
	"Mass Effect 2 was released by BioWare on January 26, 2010.",
	"Metroid Prime launched for the GameCube on November 17, 2002.",
	"Shadow of the Colossus first released for the PlayStation 2 on October 18, 2005.",
	"Disco Elysium was released on October 15, 2019 by ZA/UM.",
}

var (
	seedFileName = flag.String("src", "", "file of seed data, one document per line")
	dbPath       = flag.String("db", "./search_db", "path to BadgerDB database directory")
	batchSize    = flag.Int("batch-size", 10, "documents embedded per batch")
	workers      = flag.Int("workers", 4, "concurrent embedding batches")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// seedBatched embeds and stores documents in concurrent batches.
func seedBatched(ctx context.Context, engine *searchgate.Engine, source iter.Seq[string]) error {
	pool, err := ants.NewPool(*workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	seq := 0
	submit := func(batch []string, offset int) {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			if err := seedBatch(ctx, engine, batch, offset); err != nil {
				slog.Error("error seeding batch", "offset", offset, "err", err)
			}
		})
	}

	batch := make([]string, 0, *batchSize)
	for line := range source {
		if line == "" {
			continue
		}
		batch = append(batch, line)
		if len(batch) == *batchSize {
			submit(batch, seq)
			seq += len(batch)
			batch = make([]string, 0, *batchSize)
		}
	}
	if len(batch) > 0 {
		submit(batch, seq)
	}

	wg.Wait()
	return nil
}

func seedBatch(ctx context.Context, engine *searchgate.Engine, batch []string, offset int) error {
	vectors, err := engine.Provider().Embedder().EmbedTexts(ctx, batch)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	docs := make([]*core.Document, len(batch))
	for i, contents := range batch {
		docs[i] = &core.Document{
			Title:      fmt.Sprintf("seed document %d", offset+i),
			URL:        fmt.Sprintf("seed://doc/%d", offset+i),
			Contents:   contents,
			Vector:     vectors[i],
			InsertedAt: now,
			UpdatedAt:  now,
		}
	}

	_, err = engine.DocumentRepository().AddDocuments(ctx, docs...)
	return err
}

func main() {
	engine, err := searchgate.NewEngine(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(facts)
	}

	if err := seedBatched(ctx, engine, source); err != nil {
		panic(err)
	}

	slog.Info("seeding complete", "db", *dbPath)
}
