// Command yt-fetch is a small CLI over the rotating Data API client:
// channel lookup, playlist and search scans, batched video details, and
// operator key management.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/shortsboard/youtube-data-client/internal/config"
	"github.com/shortsboard/youtube-data-client/pkg/client"
	"github.com/shortsboard/youtube-data-client/pkg/keypool"
	"github.com/shortsboard/youtube-data-client/pkg/keystore"
	"github.com/shortsboard/youtube-data-client/pkg/logging"
	"github.com/shortsboard/youtube-data-client/pkg/youtube"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	max := flag.Int("max", 50, "Maximum number of results")
	order := flag.String("order", "", "Search result order (relevance, date, viewCount, rating)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yt-fetch: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logger.Level),
		Pretty: cfg.Logger.Pretty,
		Output: os.Stderr,
	})

	ctx := context.Background()

	var store *keystore.Store
	if cfg.Keys.StorePath != "" {
		store, err = keystore.Open(cfg.Keys.StorePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open key store")
		}
		defer store.Close()
	}

	switch args[0] {
	case "keys":
		runKeys(ctx, store, args[1:])
	case "channel", "playlist", "videos", "search":
		svc := buildService(ctx, cfg, store)
		runFetch(ctx, svc, args, *max, *order)
	default:
		usage()
		os.Exit(2)
	}
}

// buildService wires config, key sources, cursor state, and the rotating
// client into the typed service.
func buildService(ctx context.Context, cfg *config.Config, store *keystore.Store) *youtube.Service {
	stateStore := buildStateStore(ctx, cfg)

	pool := keypool.New(stateStore, log.Logger)
	sources := keypool.FromEnvironment()
	if store != nil {
		sources = append(sources, keypool.StoreSource{Store: store})
	}
	if err := pool.Load(ctx, sources...); err != nil {
		log.Fatal().Err(err).Msg("Failed to load key pool")
	}

	ytClient, err := client.New(pool, client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}

	return youtube.NewService(ytClient)
}

func buildStateStore(ctx context.Context, cfg *config.Config) keypool.StateStore {
	switch cfg.State.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		return keypool.NewRedisStore(redisClient, "")
	default:
		return keypool.NewFileStore(cfg.State.Path)
	}
}

func runFetch(ctx context.Context, svc *youtube.Service, args []string, max int, order string) {
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	arg := args[1]

	var result any
	var err error

	switch args[0] {
	case "channel":
		result, err = svc.ChannelByIdentifier(ctx, arg)
	case "playlist":
		result, err = svc.PlaylistVideoIDs(ctx, arg, max)
	case "videos":
		result, err = svc.Videos(ctx, strings.Split(arg, ","))
	case "search":
		result, err = svc.SearchVideoIDs(ctx, arg, max, order)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("Fetch failed")
	}

	printJSON(result)
}

func runKeys(ctx context.Context, store *keystore.Store, args []string) {
	if store == nil {
		log.Fatal().Msg("Key store disabled (keys.store_path is empty)")
	}
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "list":
		records, err := store.List(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list keys")
		}
		printJSON(records)
	case "add":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		name := ""
		if len(args) > 2 {
			name = args[2]
		}
		id, err := store.Add(ctx, args[1], name)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to add key")
		}
		fmt.Printf("added key %d\n", id)
	case "rm":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid key id")
		}
		if err := store.Remove(ctx, id); err != nil {
			log.Fatal().Err(err).Msg("Failed to remove key")
		}
		fmt.Printf("removed key %d\n", id)
	case "import":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		added, err := store.ImportFromString(ctx, args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to import keys")
		}
		fmt.Printf("imported %d keys\n", added)
	default:
		usage()
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: yt-fetch [flags] <command> [args]

Commands:
  channel <id|@handle|url>   Fetch channel information
  playlist <playlistID>      List video ids of a playlist
  videos <id,id,...>         Fetch video details
  search <query>             Search for video ids
  keys list                  List stored API keys (masked)
  keys add <key> [name]      Store a new API key
  keys rm <id>               Remove a stored key
  keys import <k1,k2,...>    Import comma-separated keys

Flags:
`)
	flag.PrintDefaults()
}
