package tests

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	echoapi "github.com/trezcool/gmao/apps/api/echo"
	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/chat"
	"github.com/trezcool/gmao/core/dashboard"
	"github.com/trezcool/gmao/core/events"
	"github.com/trezcool/gmao/core/prediction"
	"github.com/trezcool/gmao/core/task"
	"github.com/trezcool/gmao/core/user"
	emailsvc "github.com/trezcool/gmao/services/email"
	logsvc "github.com/trezcool/gmao/services/logger"
	"github.com/trezcool/gmao/services/metrics"
	"github.com/trezcool/gmao/storage/csvdata"
	inmemdb "github.com/trezcool/gmao/storage/database/inmem"
)

func TestMain(m *testing.M) {
	logger := logsvc.NewDiscardLogger()
	core.ParseEmailTemplates(logger, true)
	user.LoadCommonPasswords(logger)
	os.Exit(m.Run())
}

const (
	amdecCSV = "Type de panne;Durée arrêt (h);Désignation\n" +
		"Mécanique;2,5;Presse P1\n" +
		"Électrique;4;Convoyeur C2\n" +
		"Mécanique;1,5;Presse P1\n"
	integratorCSV = "Type;Temps d'arrêt;Désignation machine\n" +
		"Hydraulique;2;Presse P1\n"
	workloadCSV = "Type de panne;Nombre d'heures;Coût total intervention;[MO interne].Prénom\n" +
		"Mécanique;3,25;150;Ali\n" +
		"Électrique;2;80,5;\n"
	predictionsJSON = `{"failures": [{"step": 1, "actual": 3, "predicted": 2.5}], "downtime": [], "workload": []}`
)

type env struct {
	conf     *core.Config
	app      *echoapi.Server
	usrRepo  user.Repository
	taskRepo task.Repository
	mailSvc  *emailsvc.ConsoleServiceMock
	broker   *events.Broker
	metrics  *metrics.Metrics
	dataDir  string
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writeFile() failed: %v", err)
	}
}

func setup(t *testing.T) *env {
	t.Helper()
	logger := logsvc.NewDiscardLogger()

	conf := core.NewTestConfig()
	conf.Data.Dir = t.TempDir()
	conf.Data.FailureFiles = []string{"AMDEC.csv", "GMAO_Integrator.csv"}
	conf.Data.WorkloadFile = "Workload.csv"
	conf.Data.PredictionsFile = "ml_predictions.json"
	writeFile(t, conf.Data.Dir, "AMDEC.csv", amdecCSV)
	writeFile(t, conf.Data.Dir, "GMAO_Integrator.csv", integratorCSV)
	writeFile(t, conf.Data.Dir, "Workload.csv", workloadCSV)
	writeFile(t, conf.Data.Dir, "ml_predictions.json", predictionsJSON)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	broker := events.NewBroker(16)
	t.Cleanup(broker.Close)
	db := inmemdb.Open(broker)
	usrRepo := inmemdb.NewUserRepository(db)
	taskRepo := inmemdb.NewTaskRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo)
	mtr := metrics.New()

	kb, err := chat.Default()
	if err != nil {
		t.Fatalf("chat.Default() failed: %v", err)
	}

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		TaskSvc:        task.NewService(taskRepo, usrSvc, mailSvc, logger),
		Dashboard:      dashboard.NewService(csvdata.NewSource(conf, logger), logger, mtr),
		Predictions:    prediction.NewStore(conf.Data.PredictionsPath()),
		Chat:           kb,
		Broker:         broker,
		Metrics:        mtr,
	})

	return &env{
		conf:     conf,
		app:      app,
		usrRepo:  usrRepo,
		taskRepo: taskRepo,
		mailSvc:  mailSvc,
		broker:   broker,
		metrics:  mtr,
		dataDir:  conf.Data.Dir,
	}
}
