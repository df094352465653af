// ABOUTME: Message catalog and locale-aware number formatting
// ABOUTME: Every user-facing string of the dashboard is resolved here

package intl

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/number"
)

// Key identifies a message in the catalog.
type Key string

const (
	MainTabTitle Key = "mainTabTitle"
	Refresh      Key = "refresh"
	LastUpdated  Key = "lastUpdated"
	Available    Key = "available"
	Used         Key = "used"
	PercentUsed  Key = "percentUsed"

	NotAvailableShort Key = "notAvailableShort"

	GlobalUtilizationHeading  Key = "globalUtilizationHeading"
	ClusterUtilizationHeading Key = "clusterUtilizationHeading"
	StorageUtilizationHeading Key = "storageUtilizationHeading"

	CPUTitle     Key = "cpuTitle"
	MemoryTitle  Key = "memoryTitle"
	StorageTitle Key = "storageTitle"

	StatusCardDataCenterTitle    Key = "statusCardDataCenterTitle"
	StatusCardClusterTitle       Key = "statusCardClusterTitle"
	StatusCardHostTitle          Key = "statusCardHostTitle"
	StatusCardStorageTitle       Key = "statusCardStorageTitle"
	StatusCardGlusterVolumeTitle Key = "statusCardGlusterVolumeTitle"
	StatusCardVMTitle            Key = "statusCardVmTitle"
	StatusCardEventTitle         Key = "statusCardEventTitle"

	StatusTypeUp      Key = "statusTypeUp"
	StatusTypeDown    Key = "statusTypeDown"
	StatusTypeError   Key = "statusTypeError"
	StatusTypeWarning Key = "statusTypeWarning"
	StatusTypeAlert   Key = "statusTypeAlert"
	StatusTypeUnknown Key = "statusTypeUnknown"

	UtilizationCardAvailableOfPercent Key = "utilizationCardAvailableOfPercent"
	UtilizationCardAvailableOfUnit    Key = "utilizationCardAvailableOfUnit"
	UtilizationCardOverCommit         Key = "utilizationCardOverCommit"
	UtilizationCardOverCommitTooltip  Key = "utilizationCardOverCommitTooltip"

	UtilizationCardCPUDialogTitle     Key = "utilizationCardCpuDialogTitle"
	UtilizationCardMemoryDialogTitle  Key = "utilizationCardMemoryDialogTitle"
	UtilizationCardStorageDialogTitle Key = "utilizationCardStorageDialogTitle"

	UtilizationCardDialogHostListTitle    Key = "utilizationCardDialogHostListTitle"
	UtilizationCardDialogStorageListTitle Key = "utilizationCardDialogStorageListTitle"
	UtilizationCardDialogVMListTitle      Key = "utilizationCardDialogVmListTitle"
	UtilizationCardDialogEmptyHostList    Key = "utilizationCardDialogEmptyHostList"
	UtilizationCardDialogEmptyStorageList Key = "utilizationCardDialogEmptyStorageList"
	UtilizationCardDialogEmptyVMList      Key = "utilizationCardDialogEmptyVmList"
)

// messages holds the printf-style source strings.
var messages = map[Key]string{
	MainTabTitle: "Dashboard",
	Refresh:      "Refresh",
	LastUpdated:  "Last Updated %s",
	Available:    "Available",
	Used:         "Used",
	PercentUsed:  "%s%% Used",

	NotAvailableShort: "N/A",

	GlobalUtilizationHeading:  "Global Utilization",
	ClusterUtilizationHeading: "Cluster Utilization",
	StorageUtilizationHeading: "Storage Utilization",

	CPUTitle:     "CPU",
	MemoryTitle:  "Memory",
	StorageTitle: "Storage",

	StatusCardDataCenterTitle:    "Data Centers",
	StatusCardClusterTitle:       "Clusters",
	StatusCardHostTitle:          "Hosts",
	StatusCardStorageTitle:       "Data Storage Domains",
	StatusCardGlusterVolumeTitle: "Gluster Volumes",
	StatusCardVMTitle:            "Virtual Machines",
	StatusCardEventTitle:         "Events",

	StatusTypeUp:      "Up",
	StatusTypeDown:    "Down",
	StatusTypeError:   "Error",
	StatusTypeWarning: "Warning",
	StatusTypeAlert:   "Alert",
	StatusTypeUnknown: "Unknown",

	UtilizationCardAvailableOfPercent: "of %v%%",
	UtilizationCardAvailableOfUnit:    "of %v %s",
	UtilizationCardOverCommit:         "Virtual resources - Committed: %v%%, Allocated: %v%%",
	UtilizationCardOverCommitTooltip:  "Committed: percentage of virtual resources promised to guests. Allocated: percentage actually assigned to running guests.",

	UtilizationCardCPUDialogTitle:     "Top Utilized Resources (CPU)",
	UtilizationCardMemoryDialogTitle:  "Top Utilized Resources (Memory)",
	UtilizationCardStorageDialogTitle: "Top Utilized Resources (Storage)",

	UtilizationCardDialogHostListTitle:    "Hosts (%d)",
	UtilizationCardDialogStorageListTitle: "Storage Domains (%d)",
	UtilizationCardDialogVMListTitle:      "Virtual Machines (%d)",
	UtilizationCardDialogEmptyHostList:    "There are currently no utilized hosts",
	UtilizationCardDialogEmptyStorageList: "There are currently no utilized storage domains",
	UtilizationCardDialogEmptyVMList:      "There are currently no utilized virtual machines",
}

// Localizer resolves message keys to display text.
type Localizer interface {
	Msg(key Key, args ...any) string
	Number0D(v float64) string
	Number1D(v float64) string
}

// Catalog is a Localizer for a single locale.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// New builds a catalog for the given BCP 47 locale. Unparseable locales fall
// back to English. Message text is English for every locale; number
// formatting follows the locale.
func New(locale string) *Catalog {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range messages {
		// SetString only fails for malformed messages, which are static here
		_ = b.SetString(tag, string(key), msg)
		if tag != language.English {
			_ = b.SetString(language.English, string(key), msg)
		}
	}

	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
	}
}

// Tag returns the catalog's locale.
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// Msg formats the message for key with args.
func (c *Catalog) Msg(key Key, args ...any) string {
	return c.printer.Sprintf(string(key), args...)
}

// Number0D formats v with no fraction digits and locale grouping.
func (c *Catalog) Number0D(v float64) string {
	return c.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

// Number1D formats v with exactly one fraction digit and locale grouping.
func (c *Catalog) Number1D(v float64) string {
	return c.printer.Sprint(number.Decimal(v, number.MinFractionDigits(1), number.MaxFractionDigits(1)))
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}
