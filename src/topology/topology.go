package topology

// Role identifies a container's job within the stack.
type Role string

const (
	RoleDatabase    Role = "database"
	RoleApplication Role = "application"
	RoleAdminUI     Role = "adminui"
)

// SetupType names a deployment variant of the stack.
type SetupType string

const (
	SetupFresh     SetupType = "fresh"
	SetupFull      SetupType = "full"
	SetupOptimized SetupType = "optimized"
)

// Database holds the credentials for the stack's logical database.
type Database struct {
	Name     string
	User     string
	Password string
}

// Paths are the in-container locations of the application's state.
type Paths struct {
	AppTree    string // installation tree
	DataDir    string // persistent data directory
	PluginDir  string // plugin/extension overlay, may be absent
	ConfigFile string // application configuration file
}

// Topology is one known deployment variant: which containers fill which
// roles, how to reach the database, and where the state lives.
type Topology struct {
	Setup       SetupType
	ComposeFile string
	Containers  map[Role]string
	Database    Database
	Paths       Paths
	// Owner is the user:group the application runtime expects on its trees.
	Owner string
	// AppURL is the HTTP entry point used for reachability checks.
	AppURL string
}

var known = []Topology{
	{
		Setup:       SetupFresh,
		ComposeFile: "docker-compose.fresh.yml",
		Containers: map[Role]string{
			RoleDatabase:    "moodle-mariadb-fresh",
			RoleApplication: "moodle-app-fresh",
			RoleAdminUI:     "moodle-pma-fresh",
		},
		Database: Database{Name: "moodle", User: "root", Password: "moodle"},
		Paths: Paths{
			AppTree:    "/bitnami/moodle",
			DataDir:    "/bitnami/moodledata",
			PluginDir:  "/bitnami/moodle/local",
			ConfigFile: "/bitnami/moodle/config.php",
		},
		Owner:  "daemon:daemon",
		AppURL: "http://localhost:8080",
	},
	{
		Setup:       SetupFull,
		ComposeFile: "docker-compose.full.yml",
		Containers: map[Role]string{
			RoleDatabase:    "moodle-mariadb-full",
			RoleApplication: "moodle-app-full",
			RoleAdminUI:     "moodle-pma-full",
		},
		Database: Database{Name: "moodle", User: "root", Password: "moodle"},
		Paths: Paths{
			AppTree:    "/bitnami/moodle",
			DataDir:    "/bitnami/moodledata",
			PluginDir:  "/bitnami/moodle/local",
			ConfigFile: "/bitnami/moodle/config.php",
		},
		Owner:  "daemon:daemon",
		AppURL: "http://localhost:8080",
	},
	{
		Setup:       SetupOptimized,
		ComposeFile: "docker-compose.optimized.yml",
		Containers: map[Role]string{
			RoleDatabase:    "moodle-mariadb-opt",
			RoleApplication: "moodle-app-opt",
			RoleAdminUI:     "moodle-pma-opt",
		},
		Database: Database{Name: "moodle", User: "root", Password: "moodle"},
		Paths: Paths{
			AppTree:    "/bitnami/moodle",
			DataDir:    "/bitnami/moodledata",
			PluginDir:  "/bitnami/moodle/local",
			ConfigFile: "/bitnami/moodle/config.php",
		},
		Owner:  "daemon:daemon",
		AppURL: "http://localhost:8080",
	},
}

// Known returns the table of recognized topologies.
func Known() []Topology {
	out := make([]Topology, len(known))
	copy(out, known)
	return out
}

// BySetup looks up a topology by its setup type.
func BySetup(s SetupType) (Topology, bool) {
	for _, t := range known {
		if t.Setup == s {
			return t, true
		}
	}
	return Topology{}, false
}

// Container returns the container name for a role.
func (t Topology) Container(r Role) string {
	return t.Containers[r]
}
