package app

import (
	"agentoast/internal/config"
	"agentoast/internal/runtime/supervisor"
)

// ---- Config ----

type Config = config.Config

type Settings = config.Settings

type ConfigManager = config.ConfigManager

var NewConfigManager = config.NewConfigManager

var SummarizeConfigChange = config.SummarizeConfigChange

// ---- Runtime ----

type Supervisor = supervisor.Supervisor

var NewSupervisor = supervisor.New

var WithLogger = supervisor.WithLogger

var WithCancelOnError = supervisor.WithCancelOnError

type LoopStats = supervisor.LoopStats
