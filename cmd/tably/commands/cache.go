package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tably/tably/pkg/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction cache",
	Long: `Inspect and prune the on-disk extraction cache.

Entries are keyed by content, prompt, model and requested columns, so
repeat runs against unchanged inputs never call the model. Expired
entries are ignored on read; "clear-expired" deletes them for good.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache location, entry count and size",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cache entry",
	RunE:  runCacheClear,
}

var cacheClearExpiredCmd = &cobra.Command{
	Use:   "clear-expired",
	Short: "Delete entries past their TTL",
	RunE:  runCacheClearExpired,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheClearExpiredCmd)

	cacheCmd.PersistentFlags().String("cache-dir", "", "cache directory (default: user cache dir)")
	cacheCmd.PersistentFlags().Duration("ttl", cache.DefaultTTL, "entry lifetime for expiry checks")
}

// cacheStore builds a store from the --cache-dir and --ttl flags, falling
// back to TABLY_CACHE_DIR for the directory.
func cacheStore(cmd *cobra.Command) *cache.Store {
	var opts []cache.Option
	dir, _ := cmd.Flags().GetString("cache-dir")
	if dir == "" {
		dir = viper.GetString("cache_dir")
	}
	if dir != "" {
		opts = append(opts, cache.WithDir(dir))
	}
	if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
		opts = append(opts, cache.WithTTL(ttl))
	}
	return cache.New(opts...)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store := cacheStore(cmd)
	st := store.Stats()
	fmt.Printf("Directory: %s\n", st.Dir)
	fmt.Printf("Entries:   %d\n", st.Entries)
	fmt.Printf("Size:      %s\n", humanize.Bytes(uint64(st.SizeBytes)))
	fmt.Printf("TTL:       %s\n", store.TTL())
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	removed := cacheStore(cmd).Clear()
	logInfo("removed %d cache entries", removed)
	return nil
}

func runCacheClearExpired(cmd *cobra.Command, args []string) error {
	store := cacheStore(cmd)
	removed := store.ClearExpired()
	logInfo("removed %d expired cache entries (ttl %s)", removed, store.TTL())
	return nil
}
