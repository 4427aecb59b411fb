package vetis

// Service categories of the VetIS platform. Every SOAP action belongs to
// exactly one of them; the category plus the environment flag on the account
// determines the URL a request is sent to.

type Service string

const (
	ServiceProduct               Service = "ProductService"
	ServiceEnterprise            Service = "EnterpriseService"
	ServiceApplicationManagement Service = "ApplicationManagementService"
)

// Endpoints resolves service categories to URLs. Both base URLs come from
// configuration; nothing here is a package-level mutable.
type Endpoints struct {
	ProductiveBaseURL string
	TestBaseURL       string
}

// Resolve returns the full endpoint URL for a service in the environment
// selected by the account's productive flag.
func (e Endpoints) Resolve(svc Service, productive bool) string {
	base := e.TestBaseURL
	if productive {
		base = e.ProductiveBaseURL
	}
	return base + "/platform/services/2.1/" + string(svc)
}

// Account is the connection profile for one registry credentials record.
// The sync services build it from the stored Credentials row; the client
// itself never touches the database.
type Account struct {
	Name       string // human-readable, used in audit comments
	Login      string
	Password   string
	APIKey     string
	ServiceID  string
	IssuerID   string
	Productive bool
}
