package domain

// Stage is one step of the deployment sequence.
type Stage string

const (
	StageLoaded         Stage = "loaded"
	StageCompared       Stage = "compared"
	StageSummarized     Stage = "summarized"
	StageConfirmed      Stage = "confirmed"
	StageMaintenanceOn  Stage = "maintenance_on"
	StageDelivered      Stage = "delivered"
	StagePostDeployRun  Stage = "post_deploy"
	StageMaintenanceOff Stage = "maintenance_off"
	StageTagged         Stage = "tagged"
	StageDone           Stage = "done"
)

// Commit is one entry of a commit log.
type Commit struct {
	Hash    string
	Message string
}

// ChangeSet is what a deployment would ship.
type ChangeSet struct {
	From    string
	To      string
	Files   []string
	Commits []Commit
	// Unknown is set when the remote commit could not be determined, in
	// which case Files and Commits are empty.
	Unknown bool
}

// DeployRequest carries the operator's command-line choices.
type DeployRequest struct {
	Environment string
	ConfigFile  string
	Branch      string
	Force       bool
	Migrate     bool
	Static      bool
	Maintenance bool
	Auto        bool
	RichTag     bool
}

// DeployPlan is the resolved set of actions, rendered before confirmation.
type DeployPlan struct {
	Environment     string
	AppName         string
	Branch          string
	Force           bool
	Pipeline        bool
	Upstream        string
	RunBuildpack    bool
	BuildpackStatic bool
	TagMode         TagMode
	Maintenance     bool
	LocalCommit     string
	RemoteCommit    string
	Tasks           []Task
}

// TaskKind distinguishes the built-in commands from configured tasks.
type TaskKind string

const (
	TaskMigrate    TaskKind = "migrate"
	TaskStatic     TaskKind = "collectstatic"
	TaskPostDeploy TaskKind = "post_deploy"
)

// Task is one command run against the application after delivery.
type Task struct {
	Kind    TaskKind
	Command string
}

// TaskResult records the outcome of one post-deploy task.
type TaskResult struct {
	Task Task
	Err  error
}

func (r TaskResult) Succeeded() bool { return r.Err == nil }

// FailedTasks returns the results that carry an error.
func FailedTasks(results []TaskResult) []TaskResult {
	var failed []TaskResult
	for _, r := range results {
		if !r.Succeeded() {
			failed = append(failed, r)
		}
	}
	return failed
}

// DeployOutcome summarises one planner run.
type DeployOutcome struct {
	Stage     Stage
	UpToDate  bool
	Plan      *DeployPlan
	Changes   *ChangeSet
	Tasks     []TaskResult
	Release   *ReleaseInfo
	TagName   string
	Completed []Stage
}
