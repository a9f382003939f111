// Package jira creates and comments on Jira issues for the approval
// workflow. A mock mode fabricates issue keys so the full approval loop
// can run locally without a Jira instance.
package jira
