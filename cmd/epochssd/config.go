// =============================================================================
// CONFIG - Flag/Env Binding For The epochssd Demo Cluster
// =============================================================================
//
// viper binds the same flag set cobra parses, so every setting can also come
// from an EPOCHSSD_-prefixed environment variable (ops override, no flag
// edits needed) - the idiomatic cobra+viper pairing, not anything this repo
// invents.
// =============================================================================

package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// clusterConfig is the resolved configuration for one epochssd run.
type clusterConfig struct {
	Nodes          int
	EpochDir       string
	RetransmitEach time.Duration
	LogLevel       string
	Propose        string
}

func bindClusterFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.Int("nodes", 5, "number of replicas in the cluster")
	flags.String("epoch-dir", "", "directory to hold each replica's epoch file (default: a temp dir)")
	flags.Duration("retransmit-interval", 250*time.Millisecond, "recovery probe retransmit cadence")
	flags.String("log-level", "info", "logrus level: debug, info, warn, error")
	flags.String("propose", "hello, epochss!", "value the first live replica proposes once the cluster is up")

	v.SetEnvPrefix("epochssd")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)
}

func loadClusterConfig(v *viper.Viper) clusterConfig {
	return clusterConfig{
		Nodes:          v.GetInt("nodes"),
		EpochDir:       v.GetString("epoch-dir"),
		RetransmitEach: v.GetDuration("retransmit-interval"),
		LogLevel:       v.GetString("log-level"),
		Propose:        v.GetString("propose"),
	}
}
