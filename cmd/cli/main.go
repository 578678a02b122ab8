// Copyright 2024 kharf
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/kharf/patrolcd/pkg/job"
	"github.com/kharf/patrolcd/pkg/kube"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
)

var Version = "development"

func main() {
	cliConfig, err := initCliConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	root := initCli(cliConfig)
	if err := root.Build().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

type RootCommandBuilder struct {
	applyCommandBuilder  ApplyCommandBuilder
	verifyCommandBuilder VerifyCommandBuilder
	renderCommandBuilder RenderCommandBuilder
}

func (builder RootCommandBuilder) Build() *cobra.Command {
	rootCmd := cobra.Command{
		Use:     "patrolcd",
		Short:   "Register declarative scheduled jobs on a Kubernetes cluster",
		Version: Version,
	}
	rootCmd.AddCommand(builder.applyCommandBuilder.Build())
	rootCmd.AddCommand(builder.verifyCommandBuilder.Build())
	rootCmd.AddCommand(builder.renderCommandBuilder.Build())
	return &rootCmd
}

type ApplyCommandBuilder struct {
	cliConfig *viper.Viper
}

func (builder ApplyCommandBuilder) Build() *cobra.Command {
	ctx := context.Background()
	var file string
	var namespace string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Validate a scheduled job manifest and register it on the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			logger, err := initLogger()
			if err != nil {
				return err
			}
			kubeConfig, err := config.GetConfig()
			if err != nil {
				return err
			}
			kubeClient, err := kube.NewClient(kubeConfig)
			if err != nil {
				return err
			}
			applier := job.Applier{
				Log:        logger,
				KubeClient: kubeClient,
				Namespace:  builder.namespace(namespace),
			}
			handle, err := applier.Apply(ctx, file)
			if err != nil {
				return err
			}
			fmt.Printf(
				"cronjob %s/%s registered with schedule '%s'\n",
				handle.Namespace,
				handle.Name,
				handle.Schedule,
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a scheduled job manifest")
	cmd.Flags().
		StringVarP(&namespace, "namespace", "n", "", "Namespace the job is registered in")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (builder ApplyCommandBuilder) namespace(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return builder.cliConfig.GetString("namespace")
}

type VerifyCommandBuilder struct{}

func (builder VerifyCommandBuilder) Build() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Parse and validate a scheduled job manifest without cluster access",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			spec, err := job.Load(file)
			if err != nil {
				return err
			}
			fmt.Printf("manifest ok: job '%s' with schedule '%s'\n", spec.Name, spec.Schedule)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a scheduled job manifest")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type RenderCommandBuilder struct {
	cliConfig *viper.Viper
}

func (builder RenderCommandBuilder) Build() *cobra.Command {
	var file string
	var namespace string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the CronJob a manifest would be registered as",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			spec, err := job.Load(file)
			if err != nil {
				return err
			}
			if namespace == "" {
				namespace = builder.cliConfig.GetString("namespace")
			}
			out, err := job.Render(spec, namespace)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a scheduled job manifest")
	cmd.Flags().
		StringVarP(&namespace, "namespace", "n", "", "Namespace the job is registered in")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func initCliConfig() (*viper.Viper, error) {
	cliConfig := viper.New()
	cliConfig.SetEnvPrefix("patrol")
	cliConfig.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cliConfig.AutomaticEnv()
	cliConfig.SetDefault("namespace", "default")
	return cliConfig, nil
}

func initCli(cliConfig *viper.Viper) *RootCommandBuilder {
	return &RootCommandBuilder{
		applyCommandBuilder:  ApplyCommandBuilder{cliConfig: cliConfig},
		verifyCommandBuilder: VerifyCommandBuilder{},
		renderCommandBuilder: RenderCommandBuilder{cliConfig: cliConfig},
	}
}

func initLogger() (logr.Logger, error) {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapLogger, err := zapConfig.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zapLogger), nil
}
