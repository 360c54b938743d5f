package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes content to name under dir and returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

// CSV joins lines into CSV file content.
func CSV(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// SampleData writes a small consistent set of the four input files to dir
// and returns their paths in load order: zip codes, providers, deficiencies,
// penalties.
//
// Providers 015009 (zip 35653) and 015010 (zip 35660) are mapped. Provider
// 015012 has a zip code missing from the centroid file.
func SampleData(t testing.TB, dir string) (zipCodes, providers, deficiencies, penalties string) {
	t.Helper()
	zipCodes = WriteFile(t, dir, "zip_code_centroids.csv", CSV(
		"zip_code,lat,lng",
		"35653,34.5055,-87.7281",
		"35660,34.7540,-87.7000",
		"35801,34.7304,-86.5861",
	))
	providers = WriteFile(t, dir, "ProviderInfo_Download.csv", CSV(
		"provnum,PROVNAME,ADDRESS,CITY,STATE,ZIP,PHONE,overall_rating",
		"015009,BURNS NURSING HOME,701 MONROE ST NW,RUSSELLVILLE,AL,35653,2563324110,5",
		"015010,COOSA VALLEY HEALTHCARE,260 WEST WALNUT ST,SHEFFIELD,AL,35660,2563832535,3",
		"015012,HIGHLANDS HEALTH AND REHAB,380 WOODS COVE RD,SCOTTSBORO,AL,35768,2562596010,",
	))
	deficiencies = WriteFile(t, dir, "Deficiencies_Download.csv", CSV(
		"provnum,survey_date_output,SurveyType,defpref,tag,tag_desc",
		"015009,2015-01-15,Health,F,0280,Care plan",
		"015010,2015-02-01,Health,F,0280,Care plan",
		"015010,2015-02-01,Health,F,0441,Infection control",
		"015012,2015-03-10,Fire Safety,K,0062,Sprinklers",
		"015012,2015-03-10,Health,F,0441,Infection control",
		"015012,2015-03-10,Health,F,0323,Accidents",
		"999999,2015-03-10,Health,F,0323,Accidents",
	))
	penalties = WriteFile(t, dir, "Penalties_Download.csv", CSV(
		"provnum,pnlty_date,filedate,pnlty_type,fine_amt,payden_strt_dt,payden_days",
		"015010,2014-05-01,2015-06-01,Fine,6500,,",
		"015012,2014-06-01,2015-06-01,Payment Denial,,2014-06-15,30",
		"015012,2014-07-01,2015-06-01,Warning,,,",
	))
	return zipCodes, providers, deficiencies, penalties
}
